package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/johnrirwin/autolot/internal/cache"
	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/metrics"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/pricing"
)

const defaultFeatured = 3

// CatalogAPI serves the public vehicle catalog.
// Cached lists are keyed by process epoch and snapshot version, so a stock
// toggle or a restart never serves a stale list.
type CatalogAPI struct {
	inventory *catalog.Inventory
	cache     cache.Cache
	epoch     string
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewCatalogAPI creates a new catalog API handler. respCache may be nil.
func NewCatalogAPI(inventory *catalog.Inventory, respCache cache.Cache, m *metrics.Metrics, logger *logging.Logger) *CatalogAPI {
	return &CatalogAPI{
		inventory: inventory,
		cache:     respCache,
		epoch:     strconv.FormatInt(time.Now().UnixNano(), 36),
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes registers catalog routes on the given mux
func (api *CatalogAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/vehicles", corsMiddleware(api.handleListVehicles))
	mux.HandleFunc("/api/vehicles/", corsMiddleware(api.handleVehicleItem))
	mux.HandleFunc("/api/colors", corsMiddleware(api.handleColors))
}

// handleListVehicles handles GET /api/vehicles?brand=&fuelType=&minPrice=&maxPrice=&q=
func (api *CatalogAPI) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	criteria, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	// Snapshot once so the cache key and the result agree on the version
	snapshot := api.inventory.Current()
	key := api.epoch + ":" + criteriaCacheKey(snapshot.Version(), criteria)

	var response models.VehicleListResponse
	if api.cache != nil && cache.GetJSON(r.Context(), api.cache, key, &response) {
		api.metrics.CatalogQuery(true, response.TotalCount)
		writeJSON(w, http.StatusOK, response)
		return
	}

	vehicles, err := catalog.Filter(snapshot, criteria)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidCriteria) {
			writeError(w, http.StatusBadRequest, "invalid_input", "minPrice must not exceed maxPrice")
			return
		}
		api.logger.Error("Failed to filter catalog", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to filter vehicles")
		return
	}

	response = models.VehicleListResponse{
		Vehicles:   vehicles,
		TotalCount: len(vehicles),
		Criteria:   criteria,
	}
	api.metrics.CatalogQuery(false, len(vehicles))

	if api.cache != nil {
		if err := cache.SetJSON(r.Context(), api.cache, key, response); err != nil {
			api.logger.Warn("Failed to cache vehicle list", logging.WithField("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// handleVehicleItem handles /api/vehicles/{id}, /api/vehicles/featured and /api/vehicles/facets
func (api *CatalogAPI) handleVehicleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/vehicles/"), "/")
	switch id {
	case "":
		writeError(w, http.StatusBadRequest, "invalid_input", "vehicle ID required")
	case "featured":
		api.handleFeatured(w, r)
	case "facets":
		writeJSON(w, http.StatusOK, api.inventory.Current().Facets())
	default:
		vehicle, err := api.inventory.Current().Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	}
}

func (api *CatalogAPI) handleFeatured(w http.ResponseWriter, r *http.Request) {
	n := defaultFeatured
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 20 {
			n = parsed
		}
	}

	vehicles := api.inventory.Current().Featured(n)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

func (api *CatalogAPI) handleColors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"colors": pricing.ColorOptions(),
	})
}

// parseCriteria reads filter criteria from query parameters.
// Setting only one price bound leaves the other at 0 or catalog.DefaultMaxPrice.
func parseCriteria(q url.Values) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{
		Brand:    strings.TrimSpace(q.Get("brand")),
		FuelType: models.FuelType(strings.TrimSpace(q.Get("fuelType"))),
		Search:   strings.TrimSpace(q.Get("q")),
	}

	minRaw, maxRaw := q.Get("minPrice"), q.Get("maxPrice")
	if minRaw == "" && maxRaw == "" {
		return criteria, nil
	}

	r := models.PriceRange{Min: 0, Max: catalog.DefaultMaxPrice}
	if minRaw != "" {
		v, err := strconv.ParseFloat(minRaw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return criteria, fmt.Errorf("minPrice must be a non-negative number")
		}
		r.Min = v
	}
	if maxRaw != "" {
		v, err := strconv.ParseFloat(maxRaw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return criteria, fmt.Errorf("maxPrice must be a non-negative number")
		}
		r.Max = v
	}
	criteria.PriceRange = &r
	return criteria, nil
}

// criteriaCacheKey identifies a query against one catalog snapshot
func criteriaCacheKey(version int64, c models.FilterCriteria) string {
	q := url.Values{}
	q.Set("brand", c.Brand)
	q.Set("fuel", string(c.FuelType))
	q.Set("q", c.Search)
	if c.PriceRange != nil {
		q.Set("min", strconv.FormatFloat(c.PriceRange.Min, 'f', -1, 64))
		q.Set("max", strconv.FormatFloat(c.PriceRange.Max, 'f', -1, 64))
	}
	return fmt.Sprintf("vehicles:v%d:%s", version, q.Encode())
}
