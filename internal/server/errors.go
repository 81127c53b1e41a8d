// Package server provides the HTTP boundary for the interview analysis
// pipeline.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/interview-insights/internal/stage"
	"github.com/jonathan/interview-insights/internal/transcript"
)

// HTTPStatus maps pipeline errors to transport-level status codes: a
// transcript validation failure is the client's problem, everything else
// (stage exhaustion, backend errors) is internal.
func HTTPStatus(err error) int {
	var ve *transcript.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var se *stage.StageError
	if errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
