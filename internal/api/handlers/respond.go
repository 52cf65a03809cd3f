package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	"github.com/markdave123-py/orthoscan/internal/output"
	"github.com/markdave123-py/orthoscan/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, services.ErrAnalysisFailed),
		errors.Is(err, ingestion_engine.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, exemplars.ErrUnknownOption),
		errors.Is(err, output.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeServiceError hides internal error text behind a generic message.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}
