// Package api exposes the HTTP surface: scan and stats endpoints, metadata,
// image serving, and the dashboard page.
package api

import (
	"log/slog"
	"net/http"

	"github.com/wtsao/yieldwatch/internal/api/middleware"
	"github.com/wtsao/yieldwatch/internal/record"
	"github.com/wtsao/yieldwatch/internal/scanner"
	"github.com/wtsao/yieldwatch/internal/stats"
	"github.com/wtsao/yieldwatch/internal/thumb"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	ScannerService *scanner.Service
	StatsService   *stats.Service
	Store          *record.Store
	Thumbs         *thumb.Cache
	WatchRoot      string
	Logger         *slog.Logger
	BasePath       string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	scannerService *scanner.Service
	statsService   *stats.Service
	store          *record.Store
	thumbs         *thumb.Cache
	watchRoot      string
	logger         *slog.Logger
	basePath       string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		scannerService: deps.ScannerService,
		statsService:   deps.StatsService,
		store:          deps.Store,
		thumbs:         deps.Thumbs,
		watchRoot:      deps.WatchRoot,
		logger:         deps.Logger,
		basePath:       deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	scanLimiter := middleware.NewScanRateLimiter()
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.Handle("POST "+bp+"/api/v1/scan", scanLimiter.Middleware(http.HandlerFunc(r.handleScan)))
	mux.HandleFunc("POST "+bp+"/api/v1/stats", r.handleStats)
	mux.HandleFunc("GET "+bp+"/api/v1/meta", r.handleMeta)
	mux.HandleFunc("GET "+bp+"/img", r.handleImage)
	mux.HandleFunc("GET "+bp+"/thumb", r.handleThumb)
	mux.HandleFunc("GET "+bp+"/{$}", r.handleIndex)

	return middleware.Logging(r.logger)(mux)
}
