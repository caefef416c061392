package http

import (
	"context"

	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
)

// maxBodyBytes bounds the submission body; larger bodies fail to decode.
const maxBodyBytes = 64 << 10

// Suggester produces validated suggestions for a submission.
type Suggester interface {
	Suggest(ctx context.Context, sub domain.SubmissionRequest) ([]domain.Suggestion, error)
}

// Handler bundles the dependencies for suggestion HTTP endpoints.
type Handler struct {
	suggester Suggester
}

func New(suggester Suggester) *Handler {
	return &Handler{suggester: suggester}
}

// suggestReq is the raw submission body. Tone and platform are optional.
type suggestReq struct {
	Name     *string `json:"name"`
	Tone     string  `json:"tone,omitempty"`
	Platform string  `json:"platform,omitempty"`
}

type suggestResp struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

type errorResp struct {
	Error string `json:"error"`
}

type optionsResp struct {
	Tones           []domain.Tone     `json:"tones"`
	Platforms       []domain.Platform `json:"platforms"`
	DefaultTone     domain.Tone       `json:"default_tone"`
	DefaultPlatform domain.Platform   `json:"default_platform"`
	MaxSuggestions  int               `json:"max_suggestions"`
}
