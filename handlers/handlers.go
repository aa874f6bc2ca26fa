package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"wishshare/cache"
	"wishshare/models"
	"wishshare/scheduler"
	"wishshare/scraper"

	"github.com/gorilla/mux"
)

// Extractor is the extraction pipeline behind the preview endpoints
type Extractor interface {
	CheckURL(rawURL string) (string, error)
	Extract(ctx context.Context, rawURL string) (*models.ProductRecord, error)
}

// CacheAdmin exposes parse cache maintenance
type CacheAdmin interface {
	Stats(ctx context.Context) cache.Report
	Clear(ctx context.Context) (int, error)
}

// AuditLog summarizes recorded extractions
type AuditLog interface {
	Summary(ctx context.Context, since time.Time) (*models.ParseEventSummary, error)
}

type Handlers struct {
	extractor   Extractor
	cache       CacheAdmin
	audit       AuditLog
	taskManager *scheduler.TaskManager
}

// NewHandlers creates the HTTP handlers. cacheAdmin and audit may be nil.
func NewHandlers(extractor Extractor, cacheAdmin CacheAdmin, audit AuditLog, workers int) *Handlers {
	return &Handlers{
		extractor:   extractor,
		cache:       cacheAdmin,
		audit:       audit,
		taskManager: scheduler.NewTaskManager(extractor.Extract, workers),
	}
}

// Close stops background workers
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// RegisterRoutes mounts the API v1 endpoints on api
func (h *Handlers) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/og/preview", h.Preview).Methods("POST")
	api.HandleFunc("/parse-url", h.Preview).Methods("POST")
	api.HandleFunc("/parse-url/async", h.PreviewAsync).Methods("POST")
	api.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")
	api.HandleFunc("/parse-cache/stats", h.CacheStats).Methods("GET")
	api.HandleFunc("/parse-cache", h.ClearCache).Methods("DELETE")
}

type previewRequest struct {
	URL string `json:"url"`
}

func decodePreviewRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return "", false
	}
	return req.URL, true
}

// Preview extracts product data for a URL. Extraction problems degrade to
// null fields; only invalid or disallowed URLs are rejected.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	rawURL, ok := decodePreviewRequest(w, r)
	if !ok {
		return
	}

	record, err := h.extractor.Extract(r.Context(), rawURL)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PreviewResponse{
		URL:           scraper.NormalizeURL(rawURL),
		ProductRecord: record,
	})
}

// PreviewAsync queues an extraction and returns the task
func (h *Handlers) PreviewAsync(w http.ResponseWriter, r *http.Request) {
	rawURL, ok := decodePreviewRequest(w, r)
	if !ok {
		return
	}

	target, err := h.extractor.CheckURL(rawURL)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	task := h.taskManager.SubmitTask(target)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"task": task.Snapshot(),
	})
}

// GetTaskStatus returns the status of an async task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, task.Snapshot())
}

// GetTaskStats returns statistics about the task manager
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":     h.taskManager.GetStats(),
		"timestamp": time.Now(),
	})
}

type cacheStatsResponse struct {
	cache.Report
	ParseEvents *models.ParseEventSummary `json:"parse_events_24h,omitempty"`
}

// CacheStats reports parse cache counters and, when the audit log is
// enabled, the last 24h of extraction outcomes.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	var response cacheStatsResponse
	if h.cache != nil {
		response.Report = h.cache.Stats(r.Context())
	}

	if h.audit != nil {
		summary, err := h.audit.Summary(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			log.Printf("⚠️ Failed to load parse event summary: %v", err)
		} else {
			response.ParseEvents = summary
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// ClearCache drops every cached parse result
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeJSON(w, http.StatusOK, map[string]int{"deleted": 0})
		return
	}

	deleted, err := h.cache.Clear(r.Context())
	if err != nil {
		log.Printf("❌ Failed to clear parse cache: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Cache backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "wishshare-parser",
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scraper.ErrDomainNotAllowed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scraper.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "Invalid URL")
	default:
		log.Printf("❌ Unexpected extraction error: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
