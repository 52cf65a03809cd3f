package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	middleware "github.com/markdave123-py/orthoscan/internal/api/middlewares"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	"github.com/markdave123-py/orthoscan/internal/models"
	"github.com/markdave123-py/orthoscan/internal/services"
)

type ProjectHandler struct {
	projects  *services.ProjectService
	ingestor  ingestion_engine.Ingestor
	maxUpload int64
	log       *zap.Logger
}

func NewProjectHandler(projects *services.ProjectService, ing ingestion_engine.Ingestor, maxUploadBytes int64, log *zap.Logger) *ProjectHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectHandler{projects: projects, ingestor: ing, maxUpload: maxUploadBytes, log: log}
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
	}
	return id, ok
}

// formFile reads the multipart "file" field. Oversized bodies get 413.
func formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid file")
		return nil, nil, false
	}
	return file, header, true
}

// UploadProject stores a multipart "file" and queues it for analysis.
func (h *ProjectHandler) UploadProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, ok := formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	p, err := h.projects.UploadAndCreate(r.Context(), uid, header.Filename, header.Header.Get("Content-Type"), file, "upload")
	if err != nil {
		h.log.Error("upload failed", zap.String("user_id", uid), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	if err := h.ingestor.Enqueue(r.Context(), p.ID); err != nil {
		// Nothing will ever analyse it; do not leave it in status uploaded.
		if derr := h.projects.Delete(context.WithoutCancel(r.Context()), uid, p.ID); derr != nil {
			h.log.Error("drop unqueued project", zap.String("project_id", p.ID), zap.Error(derr))
		}
		h.log.Warn("analysis queue unavailable", zap.String("project_id", p.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "analysis queue is full, try again later")
		return
	}
	h.log.Info("project queued", zap.String("project_id", p.ID), zap.String("content_type", p.ContentType))

	writeJSON(w, http.StatusAccepted, p)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.projects.ListByUser(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []models.Project{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, err := h.projects.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
