package models

import "time"

// LeadKind identifies which site form produced a lead
type LeadKind string

const (
	LeadOrder   LeadKind = "order"
	LeadSell    LeadKind = "sell"
	LeadService LeadKind = "service"
	LeadContact LeadKind = "contact"
)

// ValidLeadKinds returns all lead kinds
func ValidLeadKinds() []LeadKind {
	return []LeadKind{LeadOrder, LeadSell, LeadService, LeadContact}
}

// OrderRequest is a submitted "Order a Car" form
type OrderRequest struct {
	CarID     string `json:"carId" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=5"`
	FirstName string `json:"firstName" validate:"min=2"`
	LastName  string `json:"lastName" validate:"min=2"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"min=10"`
	Address   string `json:"address" validate:"min=5"`
	City      string `json:"city" validate:"min=2"`
	Zip       string `json:"zip" validate:"min=5"`
	Notes     string `json:"notes,omitempty"`
}

// SellRequest is a submitted "Sell Your Car" form
type SellRequest struct {
	Brand         string        `json:"brand" validate:"required"`
	Model         string        `json:"model" validate:"required"`
	Year          int           `json:"year" validate:"required,gte=1900"`
	Mileage       float64       `json:"mileage" validate:"gt=0"`
	Condition     ConditionTier `json:"condition" validate:"required,conditiontier"`
	ExteriorColor string        `json:"exteriorColor" validate:"required"`
	Transmission  string        `json:"transmission" validate:"required"`
	FuelType      string        `json:"fuelType" validate:"required"`
	Description   string        `json:"description" validate:"min=10"`
	Name          string        `json:"name" validate:"min=2"`
	Email         string        `json:"email" validate:"required,email"`
	Phone         string        `json:"phone" validate:"min=10"`
	PhotoIDs      []string      `json:"photoIds,omitempty" validate:"max=10,dive,required"`
}

// ConditionInput extracts the estimator input from the form
func (r *SellRequest) ConditionInput() ConditionInput {
	return ConditionInput{
		Brand:     r.Brand,
		Year:      r.Year,
		Mileage:   r.Mileage,
		Condition: r.Condition,
	}
}

// ServiceBooking is a submitted "Book a Service" form
type ServiceBooking struct {
	Brand       string `json:"brand" validate:"required"`
	Model       string `json:"model" validate:"required"`
	Year        int    `json:"year" validate:"required,gte=1900"`
	ServiceType string `json:"serviceType" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot    string `json:"timeSlot" validate:"required"`
	Name        string `json:"name" validate:"min=2"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"min=10"`
	Message     string `json:"message,omitempty"`
}

// ContactMessage is a submitted contact form
type ContactMessage struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"min=2"`
	Message string `json:"message" validate:"min=10"`
}

// ServiceType is an entry of the workshop service menu
type ServiceType struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"` // nil for custom quotes
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
}

// OrderConfirmation is returned when an order lead is accepted
type OrderConfirmation struct {
	ID             string      `json:"id"`
	Vehicle        Vehicle     `json:"vehicle"`
	Color          ColorOption `json:"color"`
	Quantity       int         `json:"quantity"`
	Total          float64     `json:"total"`
	FormattedTotal string      `json:"formattedTotal"`
	SubmittedAt    time.Time   `json:"submittedAt"`
}

// SellConfirmation is returned when a sell request is accepted
type SellConfirmation struct {
	ID          string    `json:"id"`
	Valuation   Valuation `json:"valuation"`
	PhotoCount  int       `json:"photoCount"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ServiceConfirmation is returned when a booking is accepted
type ServiceConfirmation struct {
	ID          string      `json:"id"`
	Service     ServiceType `json:"service"`
	Date        string      `json:"date"`
	TimeSlot    string      `json:"timeSlot"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// ContactConfirmation is returned when a contact message is accepted
type ContactConfirmation struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// LeadEvent is handed to notifiers once a lead has been accepted
type LeadEvent struct {
	ID          string      `json:"id"`
	Kind        LeadKind    `json:"kind"`
	Summary     string      `json:"summary"`
	SubmittedAt time.Time   `json:"submittedAt"`
	Payload     interface{} `json:"payload"`
}
