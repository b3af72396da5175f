package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
)

// Headers exchanged with the analysis worker.
const (
	HeaderFilename = "Filename"
	HeaderOCR      = "Ocr-Backend"
	HeaderError    = "Analyzer-Error"
)

// NATSAnalyzer sends image bytes as a NATS request to a long-lived analysis
// worker and returns the reply body.
type NATSAnalyzer struct {
	conn       *nats.Conn
	subject    string
	ocrBackend string
	timeout    time.Duration
}

// NewNATSAnalyzer creates an analyzer publishing requests on subject.
func NewNATSAnalyzer(conn *nats.Conn, subject, ocrBackend string, timeout time.Duration) (*NATSAnalyzer, error) {
	if conn == nil {
		return nil, errors.New("nats analyzer requires a connection")
	}
	if subject == "" {
		return nil, errors.New("nats analyzer requires a subject")
	}
	return &NATSAnalyzer{
		conn:       conn,
		subject:    subject,
		ocrBackend: ocrBackend,
		timeout:    timeout,
	}, nil
}

// Backend implements Analyzer.
func (a *NATSAnalyzer) Backend() string { return BackendNATS }

// Analyze implements Analyzer.
func (a *NATSAnalyzer) Analyze(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	msg := nats.NewMsg(a.subject)
	msg.Data = data
	msg.Header.Set(HeaderFilename, filepath.Base(path))
	if a.ocrBackend != "" {
		msg.Header.Set(HeaderOCR, a.ocrBackend)
	}

	reply, err := a.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("analyzer request on %s: %w", a.subject, err)
	}
	if reason := reply.Header.Get(HeaderError); reason != "" {
		return nil, errors.New(reason)
	}
	if len(reply.Data) == 0 {
		return nil, errors.New("analyzer worker returned an empty reply")
	}
	return json.RawMessage(reply.Data), nil
}
