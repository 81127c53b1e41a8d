package types

import (
	"github.com/go-playground/validator/v10"
)

// AnalyzeRequest is the request body for the analyze endpoint. Metadata is
// an opaque mapping passed through untouched; the transcript maps field
// names to utterance text.
type AnalyzeRequest struct {
	Metadata   map[string]any    `json:"metadata"`
	Transcript map[string]string `json:"transcript" validate:"required,min=1"`
}

// Validate validates the AnalyzeRequest using the validator.
func (r *AnalyzeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
