package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "bookline/pkg/errors"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type FailureResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteMessage(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, MessageResponse{Message: message})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError maps an application error onto the booking API contract.
// Absent resources answer 204 with an empty body rather than 404; the
// front-ends treat "no content" as an empty result set.
func WriteError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)

	switch appErr.Code {
	case apperrors.CodeNotFound:
		WriteNoContent(w)
		return
	case apperrors.CodeTooManyRequests:
		if retry, ok := appErr.Details["retry_after"].(int); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retry))
		}
		WriteJSON(w, appErr.StatusCode(), FailureResponse{
			Success: false,
			Message: appErr.Message,
		})
		return
	}

	WriteJSON(w, appErr.StatusCode(), FailureResponse{
		Success: false,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
