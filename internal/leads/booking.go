package leads

import (
	"fmt"
	"time"

	"github.com/johnrirwin/autolot/internal/models"
)

// MaxBookingDays is how far ahead a service can be booked
const MaxBookingDays = 30

// ServiceYears is how many model years back the workshop services
const ServiceYears = 30

func price(v float64) *float64 { return &v }

var serviceTypes = []models.ServiceType{
	{
		ID:          "basic",
		Name:        "Basic Service",
		Price:       price(149),
		Description: "Oil change, fluid top-ups, filter replacement, and basic inspection.",
		Duration:    "1-2 hours",
	},
	{
		ID:          "full",
		Name:        "Full Service",
		Price:       price(299),
		Description: "Comprehensive inspection, filter replacements, brake check, suspension check, and more.",
		Duration:    "3-4 hours",
	},
	{
		ID:          "custom",
		Name:        "Custom Service",
		Description: "Custom service based on your specific requirements.",
		Duration:    "Varies",
	},
}

var timeSlots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

// ServiceTypes returns the workshop menu
func ServiceTypes() []models.ServiceType {
	out := make([]models.ServiceType, len(serviceTypes))
	for i, st := range serviceTypes {
		if st.Price != nil {
			st.Price = price(*st.Price)
		}
		out[i] = st
	}
	return out
}

// FindServiceType looks up a service by id
func FindServiceType(id string) (*models.ServiceType, bool) {
	for _, st := range ServiceTypes() {
		if st.ID == id {
			st := st
			return &st, true
		}
	}
	return nil, false
}

// TimeSlots returns the bookable start times
func TimeSlots() []string {
	return append([]string(nil), timeSlots...)
}

func validTimeSlot(slot string) bool {
	for _, s := range timeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// ValidateBookingDate checks a YYYY-MM-DD date against the booking calendar:
// strictly after today, at most MaxBookingDays ahead, Monday to Friday.
// Dates are interpreted in now's location.
func ValidateBookingDate(date string, now time.Time) error {
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !d.After(today) {
		return fmt.Errorf("date must be after today")
	}
	if d.After(today.AddDate(0, 0, MaxBookingDays)) {
		return fmt.Errorf("bookings open at most %d days ahead", MaxBookingDays)
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("service is available Monday to Friday")
	}
	return nil
}
