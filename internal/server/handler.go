// Package server wires the extraction core to its HTTP surface.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/export"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/pipeline"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
)

// maxUploadMemory bounds only the in-memory portion of multipart parsing;
// the core enforces no upload size limit of its own.
const maxUploadMemory = 32 << 20

type Handler struct {
	orch     *pipeline.Orchestrator
	store    *record.Store
	exporter *export.Service
	logger   *slog.Logger
}

func NewHandler(orch *pipeline.Orchestrator, store *record.Store, exporter *export.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orch: orch, store: store, exporter: exporter, logger: logger}
}

// Register mounts all API routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Post("/api/extract", h.handleExtract)
	r.Get("/api/status", h.handleStatus)

	r.Get("/api/records", h.handleListRecords)
	r.Get("/api/records/duplicates", h.handleDuplicates)
	r.Put("/api/records/{id}", h.handleUpdateRecord)
	r.Delete("/api/records/{id}", h.handleDeleteRecord)
	r.Post("/api/records/clear", h.handleClear)

	r.Get("/api/export/csv", h.handleExportCSV)
	r.Get("/api/export/xlsx", h.handleExportXLSX)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// handleExtract accepts a multipart upload (field "files", one or more
// image/PDF parts) and runs a sequential extraction batch over it.
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, h.logger, common.WrapError(common.ErrNoFile, "parse multipart form"))
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		parts = r.MultipartForm.File["file"]
	}
	if len(parts) == 0 {
		writeError(w, h.logger, common.ErrNoFile)
		return
	}

	files := make([]pipeline.UploadedFile, 0, len(parts))
	for _, p := range parts {
		src, err := p.Open()
		if err != nil {
			writeError(w, h.logger, common.WrapError(err, "open upload"))
			return
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			writeError(w, h.logger, common.WrapError(err, "read upload"))
			return
		}
		files = append(files, pipeline.UploadedFile{
			Name:     p.Filename,
			MIMEType: p.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	res, err := h.orch.ProcessBatch(r.Context(), files)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

// listResponse is the presentation view plus the state needed to render it.
type listResponse struct {
	Records    []record.Record `json:"records"`
	Total      int             `json:"total"`
	Query      string          `json:"query"`
	SortKey    record.SortKey  `json:"sortKey"`
	SortDir    record.SortDir  `json:"sortDir"`
	Duplicates []string        `json:"duplicates"`
}

// handleListRecords returns the current view. A "sort" parameter advances
// the three-state toggle for that key ("dir" alongside it sets the direction
// outright); a "q" parameter sets the filter. Filtering composes over the
// sorted view; the canonical order is never touched.
func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	h.applyViewParams(r)

	query, sortKey, sortDir := h.store.ViewState()
	writeJSON(w, http.StatusOK, listResponse{
		Records:    h.store.View(),
		Total:      h.store.Len(),
		Query:      query,
		SortKey:    sortKey,
		SortDir:    sortDir,
		Duplicates: h.store.Duplicates(),
	})
}

func (h *Handler) handleDuplicates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"duplicates": h.store.Duplicates()})
}

// handleUpdateRecord commits a save-edit: the submitted fields replace the
// record and the normalizer runs before the commit.
func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body record.Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, common.WrapError(common.ErrInvalidInput, "decode record body"))
		return
	}
	updated, err := h.store.Update(id, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleClear empties the store. The confirmation dialog lives at the UI
// boundary; the operation here is unconditional.
func (h *Handler) handleClear(w http.ResponseWriter, _ *http.Request) {
	h.store.Clear()
	writeJSON(w, http.StatusOK, map[string]int{"records": 0})
}

// handleExportCSV downloads the currently filtered view, not the full store.
func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.applyViewParams(r)
	data := h.exporter.CSV(h.store.View())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="extracted_data.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.applyViewParams(r)
	data, err := h.exporter.XLSX(h.store.View())
	if err != nil {
		writeError(w, h.logger, common.WrapError(err, "export xlsx"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extracted_data.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// applyViewParams adjusts the session view from query parameters. "sort"
// alone advances the three-state toggle; "sort" with "dir" sets the state
// outright so stateless callers need not replay the cycle.
func (h *Handler) applyViewParams(r *http.Request) {
	q := r.URL.Query()
	if q.Has("q") {
		h.store.SetFilter(q.Get("q"))
	}
	switch {
	case q.Has("sort") && q.Has("dir"):
		h.store.SetSort(record.SortKey(q.Get("sort")), record.SortDir(q.Get("dir")))
	case q.Has("sort"):
		h.store.ToggleSort(record.SortKey(q.Get("sort")))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the failure taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNoFile), errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrBusy):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Error("server.request.failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestLogger logs each request in the service's slog idiom.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("server.request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
			)
		})
	}
}
