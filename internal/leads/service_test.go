package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/moderation"
	"github.com/johnrirwin/autolot/internal/pricing"
	"github.com/johnrirwin/autolot/internal/ratelimit"
	"github.com/johnrirwin/autolot/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.LeadEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, event models.LeadEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []models.LeadEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.LeadEvent(nil), n.events...)
}

type fixture struct {
	svc      *Service
	notifier *recordingNotifier
	photos   *images.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	notifier := &recordingNotifier{}
	photos := images.NewService(&moderation.MockModerator{}, images.NewInMemoryPendingStore(time.Minute), time.Second)
	svc := NewService(Deps{
		Inventory: catalog.NewInventory(catalog.Default()),
		Estimator: pricing.NewEstimator(func() time.Time { return friday }),
		Photos:    photos,
		Notifier:  notifier,
		Limiter:   ratelimit.New(time.Minute),
		Logger:    testutil.NullLogger(),
		Now:       func() time.Time { return friday },
	})

	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("lead-%d", n)
	}
	return &fixture{svc: svc, notifier: notifier, photos: photos}
}

func validOrder() models.OrderRequest {
	return models.OrderRequest{
		CarID:     "2",
		Color:     "black",
		Quantity:  2,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "5551234567",
		Address:   "12 Main Street",
		City:      "Springfield",
		Zip:       "90210",
	}
}

func validSell() models.SellRequest {
	return models.SellRequest{
		Brand:         "Audi",
		Model:         "A4",
		Year:          2020,
		Mileage:       50000,
		Condition:     models.ConditionGood,
		ExteriorColor: "Black",
		Transmission:  "Automatic",
		FuelType:      "Petrol",
		Description:   "One owner, full service history.",
		Name:          "Sam Seller",
		Email:         "sam@example.com",
		Phone:         "5559876543",
	}
}

func validBooking() models.ServiceBooking {
	return models.ServiceBooking{
		Brand:       "BMW",
		Model:       "X5",
		Year:        2018,
		ServiceType: "full",
		Date:        "2026-06-08",
		TimeSlot:    "10:00",
		Name:        "Bob Driver",
		Email:       "bob@example.com",
		Phone:       "5550001111",
	}
}

func serviceError(t *testing.T, err error) *ServiceError {
	t.Helper()
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	return se
}

func hasField(se *ServiceError, field string) bool {
	for _, f := range se.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestService_QuoteOrder(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.QuoteOrder(models.OrderQuoteRequest{CarID: "2", Color: "black", Quantity: 2})
	if err != nil {
		t.Fatalf("QuoteOrder() error = %v", err)
	}
	if q.Total != 80800 || q.FormattedTotal != "$80,800" {
		t.Errorf("QuoteOrder() total = %v (%s), want 80800", q.Total, q.FormattedTotal)
	}

	q, err = f.svc.QuoteOrder(models.OrderQuoteRequest{})
	if err != nil {
		t.Fatalf("QuoteOrder(empty) error = %v", err)
	}
	if q.Selected || q.Quantity != 1 || q.Total != 0 {
		t.Errorf("QuoteOrder(empty) = %+v, want unselected quantity 1", q)
	}

	_, err = f.svc.QuoteOrder(models.OrderQuoteRequest{CarID: "99", Quantity: 1})
	if se := serviceError(t, err); se.Code != CodeNotFound {
		t.Errorf("unknown car code = %q, want %q", se.Code, CodeNotFound)
	}

	_, err = f.svc.QuoteOrder(models.OrderQuoteRequest{CarID: "2", Quantity: 6})
	if se := serviceError(t, err); se.Code != CodeOutOfRange || !hasField(se, "quantity") {
		t.Errorf("quantity 6 = %+v, want out_of_range on quantity", se)
	}
}

func TestService_SubmitOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validOrder()
	req.Notes = "<p>Please call after 5pm</p>"

	conf, err := f.svc.SubmitOrder(ctx, "203.0.113.1", req)
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if conf.ID != "lead-1" || conf.Total != 80800 || conf.Color.Label != "Obsidian Black" {
		t.Errorf("SubmitOrder() = %+v", conf)
	}
	if !conf.SubmittedAt.Equal(friday) {
		t.Errorf("SubmittedAt = %v, want %v", conf.SubmittedAt, friday)
	}

	events := f.notifier.Events()
	if len(events) != 1 {
		t.Fatalf("notified %d events, want 1", len(events))
	}
	if events[0].Kind != models.LeadOrder || events[0].ID != conf.ID {
		t.Errorf("event = %+v", events[0])
	}
	if events[0].Summary != "2 x Audi A4 in Obsidian Black, $80,800" {
		t.Errorf("Summary = %q", events[0].Summary)
	}
}

func TestService_SubmitOrder_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.OrderRequest)
		wantCode  string
		wantField string
	}{
		{"missing email", func(r *models.OrderRequest) { r.Email = "" }, CodeInvalidInput, "email"},
		{"short phone", func(r *models.OrderRequest) { r.Phone = "555" }, CodeInvalidInput, "phone"},
		{"quantity above five", func(r *models.OrderRequest) { r.Quantity = 6 }, CodeInvalidInput, "quantity"},
		{"unknown car", func(r *models.OrderRequest) { r.CarID = "42" }, CodeInvalidInput, "carId"},
		{"out of stock", func(r *models.OrderRequest) { r.CarID = "5" }, CodeOutOfStock, "carId"},
		{"unknown color", func(r *models.OrderRequest) { r.Color = "green" }, CodeInvalidInput, "color"},
		{"markup only name", func(r *models.OrderRequest) { r.FirstName = "<b></b>" }, CodeInvalidInput, "firstName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validOrder()
			tt.mutate(&req)

			_, err := f.svc.SubmitOrder(context.Background(), "203.0.113.1", req)
			se := serviceError(t, err)
			if se.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", se.Code, tt.wantCode)
			}
			if !hasField(se, tt.wantField) {
				t.Errorf("Fields = %+v, want an error on %q", se.Fields, tt.wantField)
			}
			if n := len(f.notifier.Events()); n != 0 {
				t.Errorf("rejected order notified %d events", n)
			}
		})
	}
}

func TestService_SubmitOrder_Throttled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitOrder(ctx, "203.0.113.1", validOrder()); err != nil {
		t.Fatalf("first SubmitOrder() error = %v", err)
	}

	_, err := f.svc.SubmitOrder(ctx, "203.0.113.1", validOrder())
	if se := serviceError(t, err); se.Code != CodeThrottled {
		t.Errorf("second submission code = %q, want %q", se.Code, CodeThrottled)
	}

	// Another client and another form are unaffected
	if _, err := f.svc.SubmitOrder(ctx, "203.0.113.2", validOrder()); err != nil {
		t.Errorf("other client SubmitOrder() error = %v", err)
	}
	if _, err := f.svc.SubmitContact(ctx, "203.0.113.1", models.ContactMessage{
		Name: "Jane", Email: "jane@example.com", Subject: "Finance", Message: "Do you offer financing?",
	}); err != nil {
		t.Errorf("SubmitContact() error = %v", err)
	}

	// Invalid forms do not consume the window
	bad := validOrder()
	bad.Email = "nope"
	if _, err := f.svc.SubmitOrder(ctx, "203.0.113.3", bad); serviceError(t, err).Code != CodeInvalidInput {
		t.Fatalf("invalid order error = %v", err)
	}
	if _, err := f.svc.SubmitOrder(ctx, "203.0.113.3", validOrder()); err != nil {
		t.Errorf("SubmitOrder() after invalid attempt error = %v", err)
	}
}

func TestService_NotifierFailureStillAccepts(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")

	conf, err := f.svc.SubmitOrder(context.Background(), "203.0.113.1", validOrder())
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if conf == nil || conf.ID == "" {
		t.Errorf("SubmitOrder() = %+v, want a confirmation", conf)
	}
}

func TestService_EstimateSale(t *testing.T) {
	f := newFixture(t)

	v, err := f.svc.EstimateSale(models.ConditionInput{Brand: " Audi ", Year: 2020, Mileage: 50000, Condition: models.ConditionGood})
	if err != nil {
		t.Fatalf("EstimateSale() error = %v", err)
	}
	if v.Estimate != 26463 || !v.KnownBrand {
		t.Errorf("EstimateSale() = %+v, want 26463 for a known brand", v)
	}

	_, err = f.svc.EstimateSale(models.ConditionInput{Brand: "Audi", Year: 2020, Condition: "mint"})
	if se := serviceError(t, err); se.Code != CodeInvalidInput {
		t.Errorf("Code = %q, want %q", se.Code, CodeInvalidInput)
	}
}

func TestService_SubmitSellRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upload, err := f.photos.ModerateUpload(ctx, "image/jpeg", []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("ModerateUpload() error = %v", err)
	}
	if upload.UploadID == "" {
		t.Fatalf("ModerateUpload() = %+v, want an upload id", upload)
	}

	req := validSell()
	req.PhotoIDs = []string{upload.UploadID}

	conf, err := f.svc.SubmitSellRequest(ctx, "198.51.100.7", req)
	if err != nil {
		t.Fatalf("SubmitSellRequest() error = %v", err)
	}
	if conf.Valuation.Estimate != 26463 || conf.Valuation.FormattedValue != "$26,463" {
		t.Errorf("Valuation = %+v", conf.Valuation)
	}
	if conf.PhotoCount != 1 {
		t.Errorf("PhotoCount = %d, want 1", conf.PhotoCount)
	}

	events := f.notifier.Events()
	if len(events) != 1 || events[0].Kind != models.LeadSell {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Summary != "2020 Audi A4, Good condition, estimate $26,463" {
		t.Errorf("Summary = %q", events[0].Summary)
	}

	// Tokens are single use
	_, err = f.svc.SubmitSellRequest(ctx, "198.51.100.8", req)
	if se := serviceError(t, err); !hasField(se, "photoIds") {
		t.Errorf("reused photo error = %+v, want photoIds field", se)
	}

	// A failed claim does not consume the throttle window
	req.PhotoIDs = nil
	if _, err := f.svc.SubmitSellRequest(ctx, "198.51.100.8", req); err != nil {
		t.Errorf("SubmitSellRequest() after failed claim error = %v", err)
	}
}

func TestService_SubmitSellRequest_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.SellRequest)
		wantField string
	}{
		{"zero mileage", func(r *models.SellRequest) { r.Mileage = 0 }, "mileage"},
		{"bad condition", func(r *models.SellRequest) { r.Condition = "mint" }, "condition"},
		{"ancient year", func(r *models.SellRequest) { r.Year = 1850 }, "year"},
		{"future year", func(r *models.SellRequest) { r.Year = 2030 }, "year"},
		{"short description", func(r *models.SellRequest) { r.Description = "ok car" }, "description"},
		{"too many photos", func(r *models.SellRequest) {
			r.PhotoIDs = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}
		}, "photoIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validSell()
			tt.mutate(&req)

			_, err := f.svc.SubmitSellRequest(context.Background(), "198.51.100.7", req)
			se := serviceError(t, err)
			if !hasField(se, tt.wantField) {
				t.Errorf("Fields = %+v, want an error on %q", se.Fields, tt.wantField)
			}
		})
	}
}

func TestService_SubmitSellRequest_PhotosUnavailableKeepsSlot(t *testing.T) {
	svc := NewService(Deps{
		Inventory: catalog.NewInventory(catalog.Default()),
		Estimator: pricing.NewEstimator(func() time.Time { return friday }),
		Notifier:  &recordingNotifier{},
		Limiter:   ratelimit.New(time.Minute),
		Logger:    testutil.NullLogger(),
		Now:       func() time.Time { return friday },
	})

	req := validSell()
	req.PhotoIDs = []string{"front"}
	_, err := svc.SubmitSellRequest(context.Background(), "198.51.100.7", req)
	if se := serviceError(t, err); !hasField(se, "photoIds") {
		t.Fatalf("Fields = %+v, want an error on photoIds", se.Fields)
	}

	req.PhotoIDs = nil
	if _, err := svc.SubmitSellRequest(context.Background(), "198.51.100.7", req); err != nil {
		t.Fatalf("resubmission without photos error = %v, want accepted", err)
	}
}

func TestService_BookService(t *testing.T) {
	f := newFixture(t)

	conf, err := f.svc.BookService(context.Background(), "192.0.2.10", validBooking())
	if err != nil {
		t.Fatalf("BookService() error = %v", err)
	}
	if conf.Service.ID != "full" || conf.Service.Price == nil || *conf.Service.Price != 299 {
		t.Errorf("Service = %+v", conf.Service)
	}
	if conf.Date != "2026-06-08" || conf.TimeSlot != "10:00" {
		t.Errorf("BookService() = %+v", conf)
	}

	events := f.notifier.Events()
	if len(events) != 1 || events[0].Summary != "Full Service for 2018 BMW X5 on 2026-06-08 at 10:00" {
		t.Errorf("events = %+v", events)
	}
}

func TestService_BookService_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.ServiceBooking)
		wantField string
	}{
		{"unknown service", func(r *models.ServiceBooking) { r.ServiceType = "premium" }, "serviceType"},
		{"slot after hours", func(r *models.ServiceBooking) { r.TimeSlot = "17:00" }, "timeSlot"},
		{"weekend", func(r *models.ServiceBooking) { r.Date = "2026-06-06" }, "date"},
		{"today", func(r *models.ServiceBooking) { r.Date = "2026-06-05" }, "date"},
		{"malformed date", func(r *models.ServiceBooking) { r.Date = "8 June" }, "date"},
		{"too old", func(r *models.ServiceBooking) { r.Year = 1990 }, "year"},
		{"next model year", func(r *models.ServiceBooking) { r.Year = 2027 }, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validBooking()
			tt.mutate(&req)

			_, err := f.svc.BookService(context.Background(), "192.0.2.10", req)
			se := serviceError(t, err)
			if se.Code != CodeInvalidInput || !hasField(se, tt.wantField) {
				t.Errorf("error = %+v, want invalid_input on %q", se, tt.wantField)
			}
		})
	}
}

func TestService_SubmitContact(t *testing.T) {
	f := newFixture(t)

	conf, err := f.svc.SubmitContact(context.Background(), "192.0.2.20", models.ContactMessage{
		Name:    "Jane",
		Email:   "jane@example.com",
		Subject: "Test drive",
		Message: "<b>Can I</b> book a test drive on Saturday?",
	})
	if err != nil {
		t.Fatalf("SubmitContact() error = %v", err)
	}
	if conf.ID == "" {
		t.Error("SubmitContact() returned no id")
	}

	events := f.notifier.Events()
	if len(events) != 1 {
		t.Fatalf("notified %d events, want 1", len(events))
	}
	msg, ok := events[0].Payload.(models.ContactMessage)
	if !ok {
		t.Fatalf("Payload = %T, want models.ContactMessage", events[0].Payload)
	}
	if msg.Message != "Can I book a test drive on Saturday?" {
		t.Errorf("Message = %q, markup should be stripped", msg.Message)
	}

	_, err = f.svc.SubmitContact(context.Background(), "192.0.2.21", models.ContactMessage{Name: "J", Email: "x"})
	se := serviceError(t, err)
	for _, field := range []string{"name", "email", "subject", "message"} {
		if !hasField(se, field) {
			t.Errorf("missing error on %q: %+v", field, se.Fields)
		}
	}
}
