package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch gameerr.CodeOf(err) {
	case gameerr.CodeInvalidChoice, gameerr.CodeUnknownItem:
		return http.StatusBadRequest
	case gameerr.CodeStoryLocked:
		return http.StatusForbidden
	case gameerr.CodeStoryNotFound, gameerr.CodeSceneNotFound:
		return http.StatusNotFound
	case gameerr.CodeNoActiveStory, gameerr.CodeNotStarted, gameerr.CodeAlreadyMatched:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message})
}

// writeEngineError reports an engine error with its code. Anything that is
// not a gameerr.Error is logged and hidden behind a generic message.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ge *gameerr.Error
	if !errors.As(err, &ge) {
		logger.Error("Unexpected engine error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, logger, statusFor(err), ErrorResponse{Error: ge.Message, Code: string(ge.Code)})
}
