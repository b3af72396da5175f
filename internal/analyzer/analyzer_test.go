package analyzer

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "banner.png")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestCommandAnalyzer_ReturnsStdout(t *testing.T) {
	requireTool(t, "cat")
	path := writeImage(t, "  {\"title\": \"Tech Fest\", \"category\": \"cultural\"}\n")

	a, err := NewCommandAnalyzer([]string{"cat"}, "easy", time.Second)
	require.NoError(t, err)
	assert.Equal(t, BackendCommand, a.Backend())

	out, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Tech Fest", "category": "cultural"}`, string(out))
}

func TestCommandAnalyzer_PassesArgsAndOCRBackend(t *testing.T) {
	requireTool(t, "sh")
	path := writeImage(t, "ignored")

	a, err := NewCommandAnalyzer([]string{"sh", "-c", `printf '{"ocr":"%s","path":"%s"}' "$OCR_BACKEND" "$0"`}, "paddle", time.Second)
	require.NoError(t, err)

	out, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "paddle", got["ocr"])
	assert.Equal(t, path, got["path"])
}

func TestCommandAnalyzer_Failure(t *testing.T) {
	requireTool(t, "sh")
	path := writeImage(t, "x")

	a, err := NewCommandAnalyzer([]string{"sh", "-c", "echo 'model weights missing' >&2; exit 3"}, "", time.Second)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model weights missing")
}

func TestCommandAnalyzer_EmptyOutput(t *testing.T) {
	requireTool(t, "true")
	a, err := NewCommandAnalyzer([]string{"true"}, "", time.Second)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), writeImage(t, "x"))
	assert.Error(t, err)
}

func TestCommandAnalyzer_Timeout(t *testing.T) {
	requireTool(t, "sh")
	// The image path lands in $0 and is ignored.
	a, err := NewCommandAnalyzer([]string{"sh", "-c", "sleep 5"}, "", 50*time.Millisecond)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), writeImage(t, "x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewCommandAnalyzer_Errors(t *testing.T) {
	_, err := NewCommandAnalyzer(nil, "", 0)
	assert.Error(t, err)

	_, err = NewCommandAnalyzer([]string{"definitely-not-a-real-analyzer-binary"}, "", 0)
	assert.Error(t, err)
}

func TestResultCache(t *testing.T) {
	cache, err := NewResultCache(2)
	require.NoError(t, err)

	k1, k2, k3 := Key([]byte("one")), Key([]byte("two")), Key([]byte("three"))
	assert.Len(t, k1, 64)
	assert.Equal(t, k1, Key([]byte("one")))

	cache.Add(k1, json.RawMessage(`{"n":1}`))
	cache.Add(k2, json.RawMessage(`{"n":2}`))
	got, ok := cache.Get(k1)
	require.True(t, ok)
	assert.JSONEq(t, `{"n":1}`, string(got))

	cache.Add(k3, json.RawMessage(`{"n":3}`))
	_, ok = cache.Get(k2)
	assert.False(t, ok, "least recently used entry should be evicted")
	assert.Equal(t, 2, cache.Len())
}

func TestResultCache_Disabled(t *testing.T) {
	cache, err := NewResultCache(0)
	require.NoError(t, err)
	assert.Nil(t, cache)

	cache.Add("k", json.RawMessage(`{}`))
	_, ok := cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}
