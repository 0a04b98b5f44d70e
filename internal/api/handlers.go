package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wtsao/yieldwatch/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleScan runs one synchronous ingestion cycle and returns its summary.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	summary, err := r.scannerService.Scan(req.Context())
	if err != nil {
		r.logger.Error("scan failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleStats resolves the requested window and returns per-station yield
// aggregates. station, period, start, and end all arrive as query parameters.
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	result, err := r.statsService.Query(req.Context(),
		q.Get("period"), q.Get("start"), q.Get("end"), q.Get("station"))
	if err != nil {
		r.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMeta returns the distinct stations seen so far, for the dashboard's
// station selector.
func (r *Router) handleMeta(w http.ResponseWriter, req *http.Request) {
	stations, err := r.store.Stations(req.Context())
	if err != nil {
		r.logger.Error("listing stations failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stations": stations})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
