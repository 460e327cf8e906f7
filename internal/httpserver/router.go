package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/smartshelf/shelf-api/internal/analysis"
	"github.com/smartshelf/shelf-api/internal/export"
)

// maxUploadBytes caps the multipart form kept in memory.
const maxUploadBytes = 32 << 20

type Router struct {
	svc   *analysis.Service
	store analysis.LogStore
}

// NewRouter builds the HTTP surface over the analysis pipeline and its log.
func NewRouter(svc *analysis.Service, store analysis.LogStore) http.Handler {
	r := &Router{svc: svc, store: store}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Post("/analyze", r.handleAnalyze)
	mux.Get("/stats", r.handleStats)
	mux.Get("/analyses", r.handleAnalyses)
	mux.Get("/export", r.handleExport)

	return mux
}

// POST /analyze
// Multipart form: image part under "file" (or the legacy "image" name),
// "products" field carrying the JSON product list.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	uploads := make(map[string]analysis.Upload)
	for _, field := range []string{analysis.ImageFieldName, analysis.LegacyImageFieldName} {
		headers := req.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to open uploaded file: %v", err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read uploaded file: %v", err))
			return
		}
		uploads[field] = analysis.Upload{
			Data:        data,
			ContentType: headers[0].Header.Get("Content-Type"),
		}
	}

	products := req.FormValue("products")

	result, err := r.svc.Analyze(req.Context(), uploads, []byte(products))
	if err != nil {
		var inv *analysis.InvalidInputError
		var upstream *analysis.UpstreamError
		switch {
		case errors.As(err, &inv):
			writeError(w, http.StatusBadRequest, inv.Msg)
		case errors.Is(err, analysis.ErrUpstreamTimeout):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		case errors.As(err, &upstream):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	snap, err := analysis.ComputeStats(req.Context(), r.store)
	if err != nil {
		log.Error().Err(err).Msg("failed to compute stats")
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type logEntryResponse struct {
	ID            int64                      `json:"id"`
	CreatedAt     string                     `json:"created_at"`
	Status        analysis.Status            `json:"status"`
	ProductNames  []string                   `json:"product_names"`
	ExecutionTime float64                    `json:"execution_time_seconds"`
	CostEstimate  float64                    `json:"cost_estimate"`
	ErrorMessage  string                     `json:"error_message,omitempty"`
	Detail        string                     `json:"detail,omitempty"`
	Criteria      *analysis.CriterionVerdict `json:"criteria,omitempty"`
}

func toLogEntryResponse(e analysis.LogEntry) logEntryResponse {
	return logEntryResponse{
		ID:            e.ID,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		Status:        e.Status,
		ProductNames:  e.ProductNames,
		ExecutionTime: e.ExecutionTime,
		CostEstimate:  e.CostEstimate,
		ErrorMessage:  e.ErrorMessage,
		Detail:        e.Detail,
		Criteria:      e.Criteria,
	}
}

// GET /analyses?limit=&status=
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	status := analysis.Status(req.URL.Query().Get("status"))
	switch status {
	case "", analysis.StatusApproved, analysis.StatusPending, analysis.StatusError:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return
	}

	entries, err := r.store.Query(req.Context(), limit, status)
	if err != nil {
		log.Error().Err(err).Msg("failed to query analysis log")
		writeError(w, http.StatusInternalServerError, "failed to query analysis log")
		return
	}

	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLogEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /export
// Renders the full log, most recent first, as an xlsx download.
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) {
	entries, err := r.store.Query(req.Context(), 0, "")
	if err != nil {
		log.Error().Err(err).Msg("failed to query analysis log for export")
		writeError(w, http.StatusInternalServerError, "failed to query analysis log")
		return
	}

	f, err := export.Workbook(entries)
	if err != nil {
		log.Error().Err(err).Msg("failed to build export workbook")
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="analises.xlsx"`)
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("failed to write export workbook")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
