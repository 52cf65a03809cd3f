package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/models"
	"github.com/markdave123-py/orthoscan/internal/output"
	"github.com/markdave123-py/orthoscan/internal/services"
)

type AnalysisHandler struct {
	projects  *services.ProjectService
	defaults  exemplars.Options
	auxRatio  float64
	maxUpload int64
	log       *zap.Logger
}

func NewAnalysisHandler(projects *services.ProjectService, defaults exemplars.Options, auxRatio float64, maxUploadBytes int64, log *zap.Logger) *AnalysisHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisHandler{projects: projects, defaults: defaults, auxRatio: auxRatio, maxUpload: maxUploadBytes, log: log}
}

// writeReport renders rep in the format named by the "format" query parameter.
func (h *AnalysisHandler) writeReport(w http.ResponseWriter, r *http.Request, rep exemplars.Report) {
	format, err := output.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	auxRatio := h.auxRatio
	if v := r.URL.Query().Get("aux_ratio"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f >= 1 {
			writeError(w, http.StatusBadRequest, "aux_ratio must be in [0,1)")
			return
		}
		auxRatio = f
	}

	// Render first so a failure does not leave a half written 200.
	var buf bytes.Buffer
	if err := output.Write(&buf, format, rep, output.Options{AuxRatio: auxRatio}); err != nil {
		h.log.Error("render report", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

// GetAnalysis returns the latest stored report of a project.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	a, err := h.projects.Analysis(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeReport(w, r, a.Report)
}

// SimilarProjects lists the user's projects closest to this one in character use.
func (h *AnalysisHandler) SimilarProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.projects.Similar(r.Context(), uid, chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []models.SimilarProject{}
	}
	writeJSON(w, http.StatusOK, list)
}

// optionsFrom overrides the server defaults with request form values.
func (h *AnalysisHandler) optionsFrom(r *http.Request) (exemplars.Options, error) {
	pick := func(key, def string) string {
		if v := r.FormValue(key); v != "" {
			return v
		}
		return def
	}
	minCount := h.defaults.MinCount
	if v := r.FormValue("min_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = -1
		}
		minCount = n
	}
	return exemplars.ParseOptions(
		pick("normalization", string(h.defaults.Normalization)),
		pick("segmentation", string(h.defaults.Segmentation)),
		pick("ranking", string(h.defaults.Ranking)),
		minCount,
	)
}

// Analyze runs a synchronous analysis of an uploaded file. Nothing is stored.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, ok := formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	opts, err := h.optionsFrom(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file")
		return
	}

	rep, err := h.projects.AnalyzeNow(r.Context(), header.Filename, header.Header.Get("Content-Type"), data, opts)
	if err != nil {
		h.log.Warn("synchronous analysis failed", zap.String("file", header.Filename), zap.Error(err))
		if statusFor(err) == http.StatusInternalServerError {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}
	h.writeReport(w, r, rep)
}
