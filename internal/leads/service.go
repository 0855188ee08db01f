// Package leads turns the site's order, sell, service and contact forms into
// validated, priced lead events.
package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/metrics"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/notify"
	"github.com/johnrirwin/autolot/internal/pricing"
	"github.com/johnrirwin/autolot/internal/ratelimit"
)

// PhotoClaimer consumes approved sell-photo tokens
type PhotoClaimer interface {
	Claim(uploadIDs []string) ([]images.PendingUpload, error)
}

// Deps are the collaborators of a Service. Inventory and Estimator are required.
type Deps struct {
	Inventory *catalog.Inventory
	Estimator *pricing.Estimator
	Photos    PhotoClaimer
	Notifier  notify.Notifier
	Limiter   ratelimit.RateLimiter
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Now       func() time.Time
}

// Service handles lead intake. Accepted leads are logged and handed to the
// notifier; nothing is persisted.
type Service struct {
	inventory *catalog.Inventory
	estimator *pricing.Estimator
	photos    PhotoClaimer
	notifier  notify.Notifier
	limiter   ratelimit.RateLimiter
	metrics   *metrics.Metrics
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates a new lead service
func NewService(deps Deps) *Service {
	s := &Service{
		inventory: deps.Inventory,
		estimator: deps.Estimator,
		photos:    deps.Photos,
		notifier:  deps.Notifier,
		limiter:   deps.Limiter,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
		newID:     uuid.NewString,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(deps.Logger)
	}
	return s
}

// QuoteOrder prices the order form as it is being filled in.
// An empty car id yields an unselected zero quote; a zero quantity counts as one.
func (s *Service) QuoteOrder(req models.OrderQuoteRequest) (*models.OrderQuote, error) {
	if req.Quantity == 0 {
		req.Quantity = pricing.MinQuantity
	}

	var vehicle *models.Vehicle
	if req.CarID != "" {
		v, err := s.inventory.Current().Get(req.CarID)
		if err != nil {
			return nil, &ServiceError{Code: CodeNotFound, Message: "vehicle not found"}
		}
		vehicle = v
	}

	quote, err := pricing.Quote(vehicle, req.Color, req.Quantity)
	if err != nil {
		return nil, pricingError(err)
	}
	return quote, nil
}

// SubmitOrder validates and accepts an order lead. The vehicle must exist and be in stock.
func (s *Service) SubmitOrder(ctx context.Context, client string, req models.OrderRequest) (*models.OrderConfirmation, error) {
	req.FirstName = singleLine(req.FirstName)
	req.LastName = singleLine(req.LastName)
	req.Email = singleLine(req.Email)
	req.Phone = singleLine(req.Phone)
	req.Address = singleLine(req.Address)
	req.City = singleLine(req.City)
	req.Zip = singleLine(req.Zip)
	req.Notes = plainText(req.Notes)

	if result := models.Validate(&req); !result.Valid {
		return nil, s.reject(models.LeadOrder, invalidForm(result))
	}

	vehicle, err := s.inventory.Current().Get(req.CarID)
	if err != nil {
		return nil, s.reject(models.LeadOrder, fieldError("carId", "selected vehicle does not exist"))
	}
	if !vehicle.InStock {
		return nil, s.reject(models.LeadOrder, &ServiceError{
			Code:    CodeOutOfStock,
			Message: vehicle.DisplayName() + " is currently out of stock",
			Fields:  []models.FieldError{{Field: "carId", Message: "selected vehicle is out of stock"}},
		})
	}
	color, ok := pricing.FindColor(req.Color)
	if !ok {
		return nil, s.reject(models.LeadOrder, fieldError("color", "unknown color option"))
	}

	total, err := pricing.TotalPrice(vehicle, color, req.Quantity)
	if err != nil {
		return nil, s.reject(models.LeadOrder, pricingError(err))
	}

	if err := s.throttle(client, models.LeadOrder); err != nil {
		return nil, err
	}

	conf := &models.OrderConfirmation{
		ID:             s.newID(),
		Vehicle:        *vehicle,
		Color:          *color,
		Quantity:       req.Quantity,
		Total:          total,
		FormattedTotal: pricing.FormatUSD(total),
		SubmittedAt:    s.now(),
	}

	summary := fmt.Sprintf("%d x %s in %s, %s", req.Quantity, vehicle.DisplayName(), color.Label, conf.FormattedTotal)
	s.accept(ctx, models.LeadOrder, conf.ID, summary, conf.SubmittedAt, struct {
		Request      models.OrderRequest      `json:"request"`
		Confirmation models.OrderConfirmation `json:"confirmation"`
	}{req, *conf})

	return conf, nil
}

// EstimateSale values a trade-in for the live estimate on the sell form
func (s *Service) EstimateSale(in models.ConditionInput) (*models.Valuation, error) {
	in.Brand = singleLine(in.Brand)

	v, err := s.estimator.Valuate(in)
	if err != nil {
		return nil, pricingError(err)
	}
	s.metrics.Estimate(string(v.Condition), v.KnownBrand)
	return v, nil
}

// SubmitSellRequest validates a sell request, claims its photos and attaches a valuation
func (s *Service) SubmitSellRequest(ctx context.Context, client string, req models.SellRequest) (*models.SellConfirmation, error) {
	req.Brand = singleLine(req.Brand)
	req.Model = singleLine(req.Model)
	req.ExteriorColor = singleLine(req.ExteriorColor)
	req.Transmission = singleLine(req.Transmission)
	req.FuelType = singleLine(req.FuelType)
	req.Description = plainText(req.Description)
	req.Name = singleLine(req.Name)
	req.Email = singleLine(req.Email)
	req.Phone = singleLine(req.Phone)

	result := models.Validate(&req)
	if req.Year > s.now().Year()+1 && !result.HasField("year") {
		result.Add("year", "year cannot be in the future")
	}
	if !result.Valid {
		return nil, s.reject(models.LeadSell, invalidForm(result))
	}

	valuation, err := s.estimator.Valuate(req.ConditionInput())
	if err != nil {
		return nil, s.reject(models.LeadSell, pricingError(err))
	}

	if len(req.PhotoIDs) > 0 && s.photos == nil {
		return nil, s.reject(models.LeadSell, fieldError("photoIds", "photo uploads are not available"))
	}

	if err := s.throttle(client, models.LeadSell); err != nil {
		return nil, err
	}

	var photos []images.PendingUpload
	if len(req.PhotoIDs) > 0 {
		photos, err = s.photos.Claim(req.PhotoIDs)
		if err != nil {
			if s.limiter != nil {
				s.limiter.Reset(throttleKey(client, models.LeadSell))
			}
			if errors.Is(err, images.ErrPendingUploadNotFound) || errors.Is(err, images.ErrUploadNotApproved) {
				return nil, s.reject(models.LeadSell, fieldError("photoIds", "one or more photos have expired, please upload them again"))
			}
			return nil, err
		}
	}

	s.metrics.Estimate(string(valuation.Condition), valuation.KnownBrand)

	conf := &models.SellConfirmation{
		ID:          s.newID(),
		Valuation:   *valuation,
		PhotoCount:  len(photos),
		SubmittedAt: s.now(),
	}

	summary := fmt.Sprintf("%d %s %s, %s condition, estimate %s",
		req.Year, req.Brand, req.Model, models.ConditionDisplayName(req.Condition), valuation.FormattedValue)
	s.accept(ctx, models.LeadSell, conf.ID, summary, conf.SubmittedAt, struct {
		Request      models.SellRequest      `json:"request"`
		Confirmation models.SellConfirmation `json:"confirmation"`
	}{req, *conf})

	return conf, nil
}

// BookService validates a workshop booking against the service menu and calendar
func (s *Service) BookService(ctx context.Context, client string, req models.ServiceBooking) (*models.ServiceConfirmation, error) {
	req.Brand = singleLine(req.Brand)
	req.Model = singleLine(req.Model)
	req.ServiceType = singleLine(req.ServiceType)
	req.Date = singleLine(req.Date)
	req.TimeSlot = singleLine(req.TimeSlot)
	req.Name = singleLine(req.Name)
	req.Email = singleLine(req.Email)
	req.Phone = singleLine(req.Phone)
	req.Message = plainText(req.Message)

	now := s.now()
	result := models.Validate(&req)

	serviceType, ok := FindServiceType(req.ServiceType)
	if req.ServiceType != "" && !ok && !result.HasField("serviceType") {
		result.Add("serviceType", "unknown service type")
	}
	if req.TimeSlot != "" && !validTimeSlot(req.TimeSlot) && !result.HasField("timeSlot") {
		result.Add("timeSlot", "time slot must be on the hour between 09:00 and 16:00")
	}
	if req.Year != 0 && !result.HasField("year") {
		if req.Year > now.Year() || req.Year <= now.Year()-ServiceYears {
			result.Add("year", fmt.Sprintf("we service vehicles from %d to %d", now.Year()-ServiceYears+1, now.Year()))
		}
	}
	if !result.HasField("date") {
		if err := ValidateBookingDate(req.Date, now); err != nil {
			result.Add("date", err.Error())
		}
	}
	if !result.Valid {
		return nil, s.reject(models.LeadService, invalidForm(result))
	}

	if err := s.throttle(client, models.LeadService); err != nil {
		return nil, err
	}

	conf := &models.ServiceConfirmation{
		ID:          s.newID(),
		Service:     *serviceType,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		SubmittedAt: now,
	}

	summary := fmt.Sprintf("%s for %d %s %s on %s at %s", serviceType.Name, req.Year, req.Brand, req.Model, req.Date, req.TimeSlot)
	s.accept(ctx, models.LeadService, conf.ID, summary, conf.SubmittedAt, struct {
		Request      models.ServiceBooking      `json:"request"`
		Confirmation models.ServiceConfirmation `json:"confirmation"`
	}{req, *conf})

	return conf, nil
}

// SubmitContact accepts a contact form message
func (s *Service) SubmitContact(ctx context.Context, client string, msg models.ContactMessage) (*models.ContactConfirmation, error) {
	msg.Name = singleLine(msg.Name)
	msg.Email = singleLine(msg.Email)
	msg.Subject = singleLine(msg.Subject)
	msg.Message = plainText(msg.Message)

	if result := models.Validate(&msg); !result.Valid {
		return nil, s.reject(models.LeadContact, invalidForm(result))
	}

	if err := s.throttle(client, models.LeadContact); err != nil {
		return nil, err
	}

	conf := &models.ContactConfirmation{
		ID:          s.newID(),
		SubmittedAt: s.now(),
	}
	s.accept(ctx, models.LeadContact, conf.ID, msg.Subject, conf.SubmittedAt, msg)

	return conf, nil
}

func throttleKey(client string, kind models.LeadKind) string {
	return client + "|" + string(kind)
}

func (s *Service) throttle(client string, kind models.LeadKind) error {
	if s.limiter == nil || client == "" {
		return nil
	}
	if s.limiter.Allow(throttleKey(client, kind)) {
		return nil
	}

	s.metrics.Lead(string(kind), "throttled")
	s.logger.Warn("Lead submission throttled", logging.WithFields(map[string]interface{}{
		"kind":   string(kind),
		"client": client,
	}))
	return &ServiceError{Code: CodeThrottled, Message: "you have just submitted this form, please wait a moment before trying again"}
}

func (s *Service) reject(kind models.LeadKind, err *ServiceError) *ServiceError {
	s.metrics.Lead(string(kind), "invalid")
	s.logger.Debug("Lead rejected", logging.WithFields(map[string]interface{}{
		"kind":   string(kind),
		"code":   err.Code,
		"fields": len(err.Fields),
	}))
	return err
}

func (s *Service) accept(ctx context.Context, kind models.LeadKind, id, summary string, at time.Time, payload interface{}) {
	event := models.LeadEvent{
		ID:          id,
		Kind:        kind,
		Summary:     summary,
		SubmittedAt: at,
		Payload:     payload,
	}

	s.metrics.Lead(string(kind), "accepted")
	s.logger.Info("Lead accepted", logging.WithFields(map[string]interface{}{
		"lead_id": id,
		"kind":    string(kind),
	}))

	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.Lead(string(kind), "notify_failed")
		s.logger.Error("Failed to deliver lead notification", logging.WithFields(map[string]interface{}{
			"lead_id": id,
			"kind":    string(kind),
			"summary": summary,
			"error":   err.Error(),
		}))
	}
}

func pricingError(err error) *ServiceError {
	switch {
	case errors.Is(err, pricing.ErrOutOfRange):
		return &ServiceError{
			Code:    CodeOutOfRange,
			Message: fmt.Sprintf("quantity must be between %d and %d", pricing.MinQuantity, pricing.MaxQuantity),
			Fields:  []models.FieldError{{Field: "quantity", Message: "quantity must be between 1 and 5"}},
		}
	case errors.Is(err, pricing.ErrInvalidInput):
		return &ServiceError{Code: CodeInvalidInput, Message: err.Error()}
	default:
		return &ServiceError{Code: CodeInvalidInput, Message: err.Error()}
	}
}
