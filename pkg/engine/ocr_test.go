package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/runner"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.png")
	require.NoError(t, os.WriteFile(path, []byte("fake png"), 0644))
	return path
}

func TestOCREngineProcess(t *testing.T) {
	fake := &runner.FakeCommandRunner{Output: `[["hello", 0.99]]`}
	eng := NewOCREngine(OCRConfig{Command: "ocr-cli", Lang: "en", UseGPU: true}, fake)

	input := writeTempImage(t)
	result, err := eng.Process(context.Background(), input)
	require.NoError(t, err)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(result, &parsed))
	assert.JSONEq(t, `[["hello", 0.99]]`, string(parsed["ocr"]))

	require.Len(t, fake.Calls, 1)
	assert.Equal(t, []string{"ocr-cli", "--lang", "en", "--use-gpu", "true", input}, fake.Calls[0])
}

func TestOCREngineMissingInput(t *testing.T) {
	fake := &runner.FakeCommandRunner{Output: "{}"}
	eng := NewOCREngine(OCRConfig{Command: "ocr-cli", Lang: "en"}, fake)

	_, err := eng.Process(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read image")
	assert.Empty(t, fake.Calls, "command must not run without an input file")
}

func TestOCREngineCommandFailureRetries(t *testing.T) {
	fake := &runner.FakeCommandRunner{ErrStr: "recognizer crashed"}
	eng := NewOCREngine(OCRConfig{Command: "ocr-cli", Lang: "en", MaxRetries: 2}, fake)

	_, err := eng.Process(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr command failed")
	// Initial attempt plus two retries.
	assert.Len(t, fake.Calls, 3)
}

func TestOCREngineBadOutput(t *testing.T) {
	fake := &runner.FakeCommandRunner{Output: "not json at all"}
	eng := NewOCREngine(OCRConfig{Command: "ocr-cli", Lang: "en"}, fake)

	_, err := eng.Process(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestFaceVerifyEngine(t *testing.T) {
	eng := NewFaceVerifyEngine()
	assert.Equal(t, jobs.TypeFaceVerify, eng.Name())

	result, err := eng.Process(context.Background(), "ignored")
	require.NoError(t, err)

	var parsed struct {
		Verified   bool     `json:"verified"`
		MatchScore *float64 `json:"match_score"`
		Note       string   `json:"note"`
	}
	require.NoError(t, json.Unmarshal(result, &parsed))
	assert.False(t, parsed.Verified)
	assert.Nil(t, parsed.MatchScore)
	assert.NotEmpty(t, parsed.Note)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(NewFaceVerifyEngine())

	eng, err := reg.Lookup(jobs.TypeFaceVerify)
	require.NoError(t, err)
	assert.Equal(t, jobs.TypeFaceVerify, eng.Name())

	_, err = reg.Lookup("unknown")
	assert.Error(t, err)
}
