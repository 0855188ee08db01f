package httpapi

import (
	"net/http"

	"github.com/johnrirwin/autolot/internal/leads"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/models"
)

// LeadAPI handles the order, sell, service and contact forms
type LeadAPI struct {
	leads  *leads.Service
	logger *logging.Logger
}

// NewLeadAPI creates a new lead API handler
func NewLeadAPI(svc *leads.Service, logger *logging.Logger) *LeadAPI {
	return &LeadAPI{
		leads:  svc,
		logger: logger,
	}
}

// RegisterRoutes registers lead form routes on the given mux
func (api *LeadAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/orders/quote", corsMiddleware(api.handleQuote))
	mux.HandleFunc("/api/orders", corsMiddleware(api.handleOrder))
	mux.HandleFunc("/api/sell/estimate", corsMiddleware(api.handleEstimate))
	mux.HandleFunc("/api/sell", corsMiddleware(api.handleSell))
	mux.HandleFunc("/api/service/types", corsMiddleware(api.handleServiceTypes))
	mux.HandleFunc("/api/service/bookings", corsMiddleware(api.handleBooking))
	mux.HandleFunc("/api/contact", corsMiddleware(api.handleContact))
}

// handleQuote handles POST /api/orders/quote (live order summary)
func (api *LeadAPI) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.OrderQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	quote, err := api.leads.QuoteOrder(req)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// handleOrder handles POST /api/orders
func (api *LeadAPI) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	conf, err := api.leads.SubmitOrder(r.Context(), clientIP(r), req)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// handleEstimate handles POST /api/sell/estimate (live trade-in estimate)
func (api *LeadAPI) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var in models.ConditionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	valuation, err := api.leads.EstimateSale(in)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, valuation)
}

// handleSell handles POST /api/sell
func (api *LeadAPI) handleSell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.SellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	conf, err := api.leads.SubmitSellRequest(r.Context(), clientIP(r), req)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// handleServiceTypes handles GET /api/service/types
func (api *LeadAPI) handleServiceTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"serviceTypes":   leads.ServiceTypes(),
		"timeSlots":      leads.TimeSlots(),
		"maxBookingDays": leads.MaxBookingDays,
	})
}

// handleBooking handles POST /api/service/bookings
func (api *LeadAPI) handleBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req models.ServiceBooking
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	conf, err := api.leads.BookService(r.Context(), clientIP(r), req)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// handleContact handles POST /api/contact
func (api *LeadAPI) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var msg models.ContactMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	conf, err := api.leads.SubmitContact(r.Context(), clientIP(r), msg)
	if err != nil {
		writeServiceError(w, api.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}
