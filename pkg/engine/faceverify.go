package engine

import (
	"context"
	"encoding/json"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
)

// FaceVerifyEngine is the KYC face-match backend. The real model is not
// wired yet; it returns a stable placeholder document so clients can
// integrate against the final result shape.
type FaceVerifyEngine struct{}

func NewFaceVerifyEngine() *FaceVerifyEngine {
	return &FaceVerifyEngine{}
}

func (e *FaceVerifyEngine) Name() jobs.Type {
	return jobs.TypeFaceVerify
}

type faceVerifyResult struct {
	Verified   bool     `json:"verified"`
	MatchScore *float64 `json:"match_score"`
	Note       string   `json:"note"`
}

func (e *FaceVerifyEngine) Process(_ context.Context, _ string) (json.RawMessage, error) {
	return json.Marshal(faceVerifyResult{
		Verified:   false,
		MatchScore: nil,
		Note:       "face_verify TODO: integrate insightface model + alignment + similarity threshold",
	})
}

var _ Engine = (*FaceVerifyEngine)(nil)
