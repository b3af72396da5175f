package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/eventcorner/assistant/internal/analyzer"
	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/pkg/logger"
	"github.com/eventcorner/assistant/pkg/metrics"
)

// Upload is one banner image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BannerService stages uploaded banners on disk and hands them to the
// analyzer.
type BannerService struct {
	analyzer   analyzer.Analyzer
	cache      *analyzer.ResultCache
	ocrBackend string
	tempDir    string
	logger     *logger.Logger
}

// NewBannerService creates a banner service. a may be nil, in which case
// every extraction reports the analyzer as unavailable. cache may be nil.
func NewBannerService(a analyzer.Analyzer, cache *analyzer.ResultCache, ocrBackend, tempDir string, log *logger.Logger) *BannerService {
	if log == nil {
		log = logger.NewNop()
	}
	return &BannerService{
		analyzer:   a,
		cache:      cache,
		ocrBackend: ocrBackend,
		tempDir:    tempDir,
		logger:     log,
	}
}

// AnalyzerLoaded reports whether an analyzer is configured.
func (s *BannerService) AnalyzerLoaded() bool { return s.analyzer != nil }

// OCRBackend names the OCR engine used by the analyzer, or "" when no
// analyzer is configured.
func (s *BannerService) OCRBackend() string {
	if s.analyzer == nil {
		return ""
	}
	return s.ocrBackend
}

// Extract returns the analyzer's JSON object for an uploaded banner
// unchanged.
func (s *BannerService) Extract(ctx context.Context, upload Upload) (json.RawMessage, error) {
	if !isImageContentType(upload.ContentType) {
		return nil, invalidInput("File must be an image")
	}
	if s.analyzer == nil {
		return nil, &Error{Kind: KindAnalyzerUnavailable, Detail: "Analyzer not initialized"}
	}

	log := s.logger.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).With(
		zap.String("filename", upload.Filename),
		zap.Int("bytes", len(upload.Data)),
	)

	key := analyzer.Key(upload.Data)
	if result, ok := s.cache.Get(key); ok {
		metrics.AnalyzerCacheLookups.WithLabelValues("hit").Inc()
		log.Debug("banner analysis served from cache")
		return result, nil
	}
	if s.cache != nil {
		metrics.AnalyzerCacheLookups.WithLabelValues("miss").Inc()
	}

	result, err := s.analyze(ctx, upload)
	if err != nil {
		log.Error("banner analysis failed", zap.Error(err))
		return nil, &Error{Kind: KindAnalyzerFailure, Detail: fmt.Sprintf("Analysis failed: %v", err), Err: err}
	}

	fields, err := objectFields(result)
	if err != nil {
		log.Error("banner analysis returned invalid output", zap.Error(err))
		return nil, &Error{Kind: KindAnalyzerFailure, Detail: fmt.Sprintf("Analysis failed: %v", err), Err: err}
	}
	if findings := checkFields(fields); len(findings) > 0 {
		log.Warn("banner analysis does not match the event schema", zap.Strings("findings", findings))
	}

	s.cache.Add(key, result)
	return result, nil
}

// analyze stages the upload in a temporary file that is removed on every
// exit path.
func (s *BannerService) analyze(ctx context.Context, upload Upload) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "analyzer.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("analyzer.backend", s.analyzer.Backend()),
		attribute.Int("analyzer.bytes", len(upload.Data)),
	)

	f, err := os.CreateTemp(s.tempDir, "banner-*"+safeExt(upload.Filename))
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(upload.Data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, f.Name())
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		metrics.RecordAnalyzer(s.analyzer.Backend(), "error", elapsed)
		return nil, err
	}
	metrics.RecordAnalyzer(s.analyzer.Backend(), "success", elapsed)
	return result, nil
}

func objectFields(result json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("analyzer output is not a JSON object")
	}
	return fields, nil
}

// checkFields reports enum values outside their domain. The analyzer output
// itself is never modified.
func checkFields(fields map[string]json.RawMessage) []string {
	var findings []string
	if raw, ok := fields[model.FieldCategory]; ok {
		var v string
		if json.Unmarshal(raw, &v) == nil && v != "" {
			if _, _, ok := model.ParseCategory(v); !ok {
				findings = append(findings, fmt.Sprintf("category %q is not one of: %s", v, model.CategoryList()))
			}
		}
	}
	if raw, ok := fields[model.FieldVenueType]; ok {
		var v string
		if json.Unmarshal(raw, &v) == nil && v != "" {
			if _, _, ok := model.ParseVenueType(v); !ok {
				findings = append(findings, fmt.Sprintf("venue_type %q is not one of: %s", v, model.VenueTypeList()))
			}
		}
	}
	return findings
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		return ""
	}
	return ext
}

// isImageContentType reports whether a declared upload content type is an
// image type.
func isImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.HasPrefix(mediaType, "image/")
}
