package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/johnrirwin/autolot/internal/admin"
	"github.com/johnrirwin/autolot/internal/cache"
	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/leads"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/metrics"
)

const maxJSONBody = 64 * 1024

// Deps are the services exposed over HTTP. Photos, Cache and Metrics are optional.
type Deps struct {
	Inventory *catalog.Inventory
	Cache     cache.Cache
	Leads     *leads.Service
	Photos    *images.Service
	Dashboard *admin.Dashboard
	Metrics   *metrics.Metrics
	Logger    *logging.Logger

	// Per-client request rate; zero disables throttling
	RateLimit float64
	RateBurst int

	// Addresses or CIDR ranges of reverse proxies allowed to set X-Forwarded-For
	TrustedProxies []string
}

type Server struct {
	deps    Deps
	limiter *clientLimiters
	proxies proxySet
	logger  *logging.Logger
	server  *http.Server
}

func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: deps.Logger,
	}
	if deps.RateLimit > 0 {
		s.limiter = newClientLimiters(deps.RateLimit, deps.RateBurst)
	}

	proxies, err := parseProxies(deps.TrustedProxies)
	if err != nil {
		s.logger.Warn("Ignoring trusted proxies, X-Forwarded-For will not be used", logging.WithField("error", err.Error()))
	}
	s.proxies = proxies
	return s
}

// Handler builds the routed, instrumented handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Catalog routes
	catalogAPI := NewCatalogAPI(s.deps.Inventory, s.deps.Cache, s.deps.Metrics, s.logger)
	catalogAPI.RegisterRoutes(mux, s.corsMiddleware)

	// Lead form routes
	leadAPI := NewLeadAPI(s.deps.Leads, s.logger)
	leadAPI.RegisterRoutes(mux, s.corsMiddleware)

	// Sell photo upload
	if s.deps.Photos != nil {
		photoAPI := NewPhotoAPI(s.deps.Photos, s.deps.Metrics, s.logger)
		photoAPI.RegisterRoutes(mux, s.corsMiddleware)
	}

	// Admin dashboard routes
	if s.deps.Dashboard != nil {
		adminAPI := NewAdminAPI(s.deps.Dashboard, s.logger)
		adminAPI.RegisterRoutes(mux, s.corsMiddleware)
	}

	// Health check
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.deps.Metrics.Handler())

	var handler http.Handler = mux
	if s.limiter != nil {
		handler = s.rateLimitMiddleware(handler)
	}
	handler = s.clientMiddleware(handler)
	return otelhttp.NewHandler(handler, "autolot-api")
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	if s.limiter != nil {
		go s.pruneLimiters()
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "healthy",
	}
	if s.deps.Inventory != nil {
		snapshot := s.deps.Inventory.Current()
		status["vehicles"] = snapshot.Len()
		status["catalogVersion"] = snapshot.Version()
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// writeServiceError maps lead service failures onto HTTP statuses.
// Anything that is not a *leads.ServiceError is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var se *leads.ServiceError
	if !errors.As(err, &se) {
		logger.Error("Request failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
		return
	}

	status := http.StatusBadRequest
	switch se.Code {
	case leads.CodeNotFound:
		status = http.StatusNotFound
	case leads.CodeOutOfStock:
		status = http.StatusConflict
	case leads.CodeThrottled:
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, se)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

