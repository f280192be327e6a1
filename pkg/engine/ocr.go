package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/logger"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/runner"
)

// OCRConfig configures the external text-recognition engine.
type OCRConfig struct {
	// Command is the recognizer binary to invoke. It must accept
	// --lang, --use-gpu and an image path, and print a JSON document
	// on stdout.
	Command string
	Lang    string
	UseGPU  bool

	// MaxRetries bounds retry attempts for transient command failures.
	MaxRetries uint64
}

// OCREngine extracts text from document images by shelling out to an
// external recognizer.
type OCREngine struct {
	cfg    OCRConfig
	runner runner.CommandRunner
	log    zerolog.Logger
}

func NewOCREngine(cfg OCRConfig, cmdRunner runner.CommandRunner) *OCREngine {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	return &OCREngine{
		cfg:    cfg,
		runner: cmdRunner,
		log:    logger.With("ocr_engine"),
	}
}

func (e *OCREngine) Name() jobs.Type {
	return jobs.TypeOCR
}

func (e *OCREngine) Process(ctx context.Context, inputURI string) (json.RawMessage, error) {
	if _, err := os.Stat(inputURI); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	args := []string{
		e.cfg.Command,
		"--lang", e.cfg.Lang,
		"--use-gpu", strconv.FormatBool(e.cfg.UseGPU),
		inputURI,
	}

	var out string
	run := func() error {
		var err error
		out, err = e.runner.RunCommand(ctx, args...)
		if err != nil {
			e.log.Warn().Err(err).Str("input", inputURI).Msg("OCR command failed, may retry")
		}
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
	), e.cfg.MaxRetries)
	if err := backoff.Retry(run, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("ocr command failed: %w", err)
	}

	var parsed json.RawMessage
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("ocr output is not valid JSON: %w", err)
	}

	result, err := json.Marshal(map[string]json.RawMessage{"ocr": parsed})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ Engine = (*OCREngine)(nil)
