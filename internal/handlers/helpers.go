package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
)

// errorStatus maps an error kind to an HTTP status. Every orchestration
// entry point funnels through here so no error leaves unclassified.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrCredentialInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNoArtifacts), errors.Is(err, models.ErrFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrTransport), errors.Is(err, models.ErrDecode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage converts an error into the single user-facing message for the
// response body.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return err.Error()
	case errors.Is(err, models.ErrConfiguration):
		return "credential not configured; set GEMINI_API_KEY or select a credential first"
	case errors.Is(err, models.ErrCredentialInvalid):
		return "credential was rejected by the generation service; select a credential and retry"
	case errors.Is(err, models.ErrDecode):
		return "generation service returned a malformed audio payload"
	case errors.Is(err, models.ErrNoArtifacts):
		return "no artifacts were produced; retry the request"
	default:
		return "generation failed; retry the request"
	}
}

// partialNotice is the visible-but-non-fatal notice for partial batches.
func partialNotice(succeeded, attempted int) string {
	return fmt.Sprintf("generated %d of %d", succeeded, attempted)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
