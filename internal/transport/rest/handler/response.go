package handler

import (
	"datalingua/internal/cache"
	"datalingua/internal/engine"
	"datalingua/internal/fault"
	"datalingua/internal/logger"
	"datalingua/internal/service"
	"datalingua/internal/storage"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decode reads a JSON body; an empty body leaves v untouched
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps service and engine errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	var rejected *engine.SubmissionRejected
	if errors.As(err, &rejected) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   rejected.Error(),
			"missing": rejected.Missing,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyResponded),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, cache.ErrLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrSurveyClosed),
		errors.Is(err, service.ErrAccountBanned),
		errors.Is(err, service.ErrAccountPending),
		errors.Is(err, service.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrBadExpression),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, engine.ErrInvalidSurvey),
		errors.Is(err, engine.ErrInvalidAnswer),
		errors.Is(err, engine.ErrUnknownQuestion),
		errors.Is(err, engine.ErrHiddenQuestion),
		errors.Is(err, engine.ErrAttachmentKind),
		errors.Is(err, engine.ErrSessionClosed),
		errors.Is(err, storage.ErrExtensionNotAllowed),
		fault.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case fault.IsInternalError(err):
		// the fault message is written for callers; the wrapped cause is not
		var f *fault.Fault
		errors.As(err, &f)
		logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, f.Message)
	default:
		logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
