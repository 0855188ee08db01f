package models

import "testing"

func validOrder() OrderRequest {
	return OrderRequest{
		CarID:     "2",
		Color:     "black",
		Quantity:  1,
		FirstName: "Mike",
		LastName:  "Wilson",
		Email:     "mike@example.com",
		Phone:     "5551234567",
		Address:   "12 Main Street",
		City:      "Austin",
		Zip:       "73301",
	}
}

func TestValidate_OrderRequest(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*OrderRequest)
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid order",
			mutate:    func(o *OrderRequest) {},
			wantValid: true,
		},
		{
			name:       "missing car",
			mutate:     func(o *OrderRequest) { o.CarID = "" },
			wantFields: []string{"carId"},
		},
		{
			name:       "quantity too high",
			mutate:     func(o *OrderRequest) { o.Quantity = 6 },
			wantFields: []string{"quantity"},
		},
		{
			name:       "quantity zero",
			mutate:     func(o *OrderRequest) { o.Quantity = 0 },
			wantFields: []string{"quantity"},
		},
		{
			name: "bad contact details",
			mutate: func(o *OrderRequest) {
				o.Email = "not-an-email"
				o.Phone = "123"
				o.Zip = "7"
			},
			wantFields: []string{"email", "phone", "zip"},
		},
		{
			name:      "notes are optional",
			mutate:    func(o *OrderRequest) { o.Notes = "" },
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			got := Validate(&order)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %+v)", got.Valid, tt.wantValid, got.Errors)
			}
			for _, field := range tt.wantFields {
				if !got.HasField(field) {
					t.Errorf("expected error for field %q, got %+v", field, got.Errors)
				}
			}
			if len(got.Errors) != len(tt.wantFields) {
				t.Errorf("got %d errors, want %d: %+v", len(got.Errors), len(tt.wantFields), got.Errors)
			}
		})
	}
}

func TestValidate_SellRequestCondition(t *testing.T) {
	req := SellRequest{
		Brand:         "Audi",
		Model:         "A6",
		Year:          2019,
		Mileage:       42000,
		Condition:     ConditionTier("mint"),
		ExteriorColor: "Black",
		Transmission:  "Automatic",
		FuelType:      "Petrol",
		Description:   "One owner, full service history.",
		Name:          "James Wilson",
		Email:         "james@example.com",
		Phone:         "5559876543",
	}

	got := Validate(&req)
	if got.Valid {
		t.Fatal("expected invalid result for unknown condition tier")
	}
	if !got.HasField("condition") {
		t.Fatalf("expected condition error, got %+v", got.Errors)
	}
	if got.Errors[0].Message != "condition must be one of excellent, good, fair, poor" {
		t.Errorf("message = %q", got.Errors[0].Message)
	}

	req.Condition = ConditionFair
	if got := Validate(&req); !got.Valid {
		t.Errorf("expected valid result, got %+v", got.Errors)
	}
}

func TestValidate_SellRequestMileageMustBePositive(t *testing.T) {
	req := SellRequest{
		Brand: "Ford", Model: "Focus", Year: 2015, Mileage: 0,
		Condition: ConditionGood, ExteriorColor: "Blue", Transmission: "Manual",
		FuelType: "Petrol", Description: "Daily driver, minor scratches.",
		Name: "Al", Email: "al@example.com", Phone: "5550000000",
	}

	got := Validate(&req)
	if !got.HasField("mileage") {
		t.Errorf("expected mileage error, got %+v", got.Errors)
	}
}

func TestValidate_ServiceBookingDateFormat(t *testing.T) {
	booking := ServiceBooking{
		Brand: "BMW", Model: "X5", Year: 2021, ServiceType: "full",
		Date: "21/05/2026", TimeSlot: "10:00", Name: "David Lee",
		Email: "david@example.com", Phone: "5551112222",
	}

	got := Validate(&booking)
	if !got.HasField("date") {
		t.Fatalf("expected date error, got %+v", got.Errors)
	}
}

func TestValidate_ContactMessage(t *testing.T) {
	msg := ContactMessage{Name: "A", Email: "a@example.com", Subject: "Hi", Message: "short"}

	got := Validate(&msg)
	if got.Valid {
		t.Fatal("expected invalid contact message")
	}
	for _, field := range []string{"name", "message"} {
		if !got.HasField(field) {
			t.Errorf("expected error for %q, got %+v", field, got.Errors)
		}
	}
	if got.HasField("subject") {
		t.Errorf("subject of 2 characters should be valid")
	}
}

func TestConditionTier_IsValid(t *testing.T) {
	for _, tier := range ValidConditionTiers() {
		if !tier.IsValid() {
			t.Errorf("%q should be valid", tier)
		}
	}
	if ConditionTier("Excellent").IsValid() {
		t.Error("tiers are case-sensitive keys")
	}
}

func TestPriceRange_Contains(t *testing.T) {
	r := PriceRange{Min: 40000, Max: 60000}

	tests := []struct {
		price float64
		want  bool
	}{
		{39999, false},
		{40000, true},
		{50000, true},
		{60000, true},
		{60000.01, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.price); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.price, got, tt.want)
		}
	}
}
