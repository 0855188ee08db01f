package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/johnrirwin/autolot/internal/admin"
	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/logging"
)

// AdminAPI handles the staff dashboard endpoints
type AdminAPI struct {
	dashboard *admin.Dashboard
	logger    *logging.Logger
}

// NewAdminAPI creates a new admin API handler
func NewAdminAPI(dashboard *admin.Dashboard, logger *logging.Logger) *AdminAPI {
	return &AdminAPI{
		dashboard: dashboard,
		logger:    logger,
	}
}

// RegisterRoutes registers admin routes
func (api *AdminAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/admin/inventory", corsMiddleware(api.handleInventory))
	mux.HandleFunc("/api/admin/inventory/", corsMiddleware(api.handleInventoryItem))
	mux.HandleFunc("/api/admin/orders", corsMiddleware(api.handleOrders))
	mux.HandleFunc("/api/admin/services", corsMiddleware(api.handleServices))
	mux.HandleFunc("/api/admin/sell-requests", corsMiddleware(api.handleSellRequests))
	mux.HandleFunc("/api/admin/summary", corsMiddleware(api.handleSummary))
}

// handleInventory handles GET /api/admin/inventory?q=
func (api *AdminAPI) handleInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	rows := api.dashboard.Inventory(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": rows,
		"count":    len(rows),
	})
}

// handleInventoryItem handles POST /api/admin/inventory/{id}/toggle-stock
func (api *AdminAPI) handleInventoryItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/inventory/")
	if !strings.HasSuffix(path, "/toggle-stock") {
		writeError(w, http.StatusNotFound, "not_found", "unknown inventory action")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	id := strings.TrimSuffix(path, "/toggle-stock")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "vehicle ID required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vehicle, err := api.dashboard.ToggleStock(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}
		api.logger.Error("Failed to toggle stock", logging.WithFields(map[string]interface{}{
			"vehicle_id": id,
			"error":      err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update stock")
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

func (api *AdminAPI) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": api.dashboard.Orders()})
}

func (api *AdminAPI) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": api.dashboard.Services()})
}

func (api *AdminAPI) handleSellRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sellRequests": api.dashboard.SellRequests()})
}

func (api *AdminAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, api.dashboard.Summary())
}
