package transport

import (
	"encoding/json"
	"net/http"

	"procurement-be/internal/apperror"
	"procurement-be/internal/logger"

	"go.uber.org/zap"
)

type errorBody struct {
	Kind    apperror.Kind `json:"kind"`
	Message string        `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidTransition, apperror.KindInvalidState,
		apperror.KindInsufficientStock, apperror.KindDuplicateName:
		return http.StatusConflict
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindUnknownProduct, apperror.KindUnknownUser:
		return http.StatusUnprocessableEntity
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperror.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case apperror.KindRateLimited:
		return http.StatusTooManyRequests
	case apperror.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteError logs err and answers with {"error":{"kind","message"}} and the
// status of its kind. Internal failures never leak their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := StatusFor(kind)
	message := apperror.MessageOf(err)

	log := logger.FromCtx(r.Context()).With(
		zap.String("kind", string(kind)),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		if kind == apperror.KindInternal {
			message = "internal error"
		}
	} else {
		log.Info("request refused", zap.String("reason", message))
	}

	writeJSON(w, status, map[string]errorBody{
		"error": {Kind: kind, Message: message},
	})
}
