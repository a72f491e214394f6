package api

import (
	"net/http"
	"time"

	"github.com/complyline/screening/internal/api/respond"
)

// WatchlistStatus reports the cache state for the health endpoint.
type WatchlistStatus interface {
	CachedDate() (time.Time, bool)
}

// HealthHandler handles the health and service-info endpoints.
type HealthHandler struct {
	watchlist WatchlistStatus
	healthy   func() bool
}

// NewHealthHandler creates a new health handler. watchlist may be nil;
// healthy is the aggregate checker's flag and reports unhealthy when nil.
func NewHealthHandler(watchlist WatchlistStatus, healthy func() bool) *HealthHandler {
	return &HealthHandler{watchlist: watchlist, healthy: healthy}
}

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy plus watchlist
// cache state. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.healthy != nil && h.healthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":           status,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"watchlist_cached": false,
		"watchlist_date":   nil,
	}
	if h.watchlist != nil {
		if date, ok := h.watchlist.CachedDate(); ok {
			response["watchlist_cached"] = true
			response["watchlist_date"] = date.Format("2006-01-02")
		}
	}
	respond.WriteJSON(w, http.StatusOK, response)
}

// ServiceInfo handles GET / with basic API metadata.
func ServiceInfo(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "Sanctions Screening API",
		"version": "1.0.0",
		"health":  "/api/health",
	})
}
