package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
)

type errorBody struct {
	Code      apperrors.Code    `json:"code"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Retryable bool              `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func unauthenticatedError(message string) error {
	return apperrors.New(apperrors.CodeUnauthenticated, message)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

// writeError translates an error into its HTTP status and JSON body. Errors
// outside the domain taxonomy are logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("internal error", zap.Error(err))
		appErr = apperrors.New(apperrors.CodeUnknown, "internal error")
	}
	writeJSON(w, appErr.Code.HTTPStatus(), errorResponse{Error: errorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Metadata:  appErr.Metadata,
		Retryable: appErr.Code.Retryable(),
	}})
}

// decodeJSON parses a request body into target, limited to 1 MiB.
func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := decoder.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err)
	}
	return nil
}
