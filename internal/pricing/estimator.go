// Package pricing holds the trade-in estimator and the order total calculator.
// Both are pure: no I/O, and the same input always yields the same output.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/johnrirwin/autolot/internal/models"
)

var (
	// ErrInvalidInput is returned for malformed values such as an unknown condition tier
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange is returned when an order quantity is outside [MinQuantity, MaxQuantity]
	ErrOutOfRange = errors.New("out of range")
)

const (
	// DefaultBaseValue is used for brands missing from the base value table
	DefaultBaseValue = 25000

	annualDepreciation = 0.95
	mileageStep        = 100000
	mileageStepLoss    = 0.2
)

var brandBaseValues = map[string]float64{
	"Tesla":      50000,
	"Audi":       40000,
	"BMW":        45000,
	"Porsche":    80000,
	"Ford":       30000,
	"Land Rover": 60000,
}

var conditionMultipliers = map[models.ConditionTier]float64{
	models.ConditionExcellent: 1.10,
	models.ConditionGood:      1.00,
	models.ConditionFair:      0.80,
	models.ConditionPoor:      0.60,
}

// BaseValue returns the starting valuation for a brand and whether the brand is known
func BaseValue(brand string) (float64, bool) {
	if v, ok := brandBaseValues[brand]; ok {
		return v, true
	}
	return DefaultBaseValue, false
}

// KnownBrands lists the brands with their own base value
func KnownBrands() []string {
	return []string{"Tesla", "Audi", "BMW", "Porsche", "Ford", "Land Rover"}
}

// ConditionMultiplier returns the final multiplier for a tier
func ConditionMultiplier(c models.ConditionTier) (float64, error) {
	m, ok := conditionMultipliers[c]
	if !ok {
		return 0, fmt.Errorf("%w: unknown condition %q", ErrInvalidInput, c)
	}
	return m, nil
}

// Estimator values trade-in vehicles relative to the current year
type Estimator struct {
	now func() time.Time
}

// NewEstimator creates an estimator. A nil clock uses time.Now.
func NewEstimator(now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{now: now}
}

// Estimate returns the rounded valuation for in
func (e *Estimator) Estimate(in models.ConditionInput) (int, error) {
	v, err := e.Valuate(in)
	if err != nil {
		return 0, err
	}
	return v.Estimate, nil
}

// Valuate computes the estimate and reports each factor that went into it.
//
// value = base(brand) * 0.95^age * max(0, 1 - mileage/100000*0.2) * condition
//
// Age is clamped at zero so future model years are valued as new.
// Negative mileage is rejected.
func (e *Estimator) Valuate(in models.ConditionInput) (*models.Valuation, error) {
	condition, err := ConditionMultiplier(in.Condition)
	if err != nil {
		return nil, err
	}
	if in.Mileage < 0 || math.IsNaN(in.Mileage) || math.IsInf(in.Mileage, 0) {
		return nil, fmt.Errorf("%w: mileage must be a non-negative number", ErrInvalidInput)
	}

	base, known := BaseValue(in.Brand)

	refYear := e.now().Year()
	age := refYear - in.Year
	if age < 0 {
		age = 0
	}
	ageFactor := math.Pow(annualDepreciation, float64(age))

	mileageFactor := 1 - (in.Mileage/mileageStep)*mileageStepLoss
	if mileageFactor < 0 {
		mileageFactor = 0
	}

	estimate := int(math.Round(base * ageFactor * mileageFactor * condition))

	return &models.Valuation{
		Estimate:        estimate,
		FormattedValue:  FormatUSD(float64(estimate)),
		BaseValue:       base,
		KnownBrand:      known,
		Age:             age,
		AgeFactor:       ageFactor,
		MileageFactor:   mileageFactor,
		ConditionFactor: condition,
		Condition:       in.Condition,
		ReferenceYear:   refYear,
	}, nil
}
