package models

// ConditionTier grades a trade-in vehicle's condition
type ConditionTier string

const (
	ConditionExcellent ConditionTier = "excellent"
	ConditionGood      ConditionTier = "good"
	ConditionFair      ConditionTier = "fair"
	ConditionPoor      ConditionTier = "poor"
)

// ValidConditionTiers returns the tiers from best to worst
func ValidConditionTiers() []ConditionTier {
	return []ConditionTier{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}
}

// IsValid checks if a condition tier value is valid
func (c ConditionTier) IsValid() bool {
	for _, valid := range ValidConditionTiers() {
		if c == valid {
			return true
		}
	}
	return false
}

// ConditionDisplayName returns the display label for a tier
func ConditionDisplayName(c ConditionTier) string {
	switch c {
	case ConditionExcellent:
		return "Excellent"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionPoor:
		return "Poor"
	default:
		return string(c)
	}
}

// ConditionInput is what the sell form knows about a trade-in
type ConditionInput struct {
	Brand     string        `json:"brand"`
	Year      int           `json:"year"`
	Mileage   float64       `json:"mileage"`
	Condition ConditionTier `json:"condition"`
}

// Valuation is an estimate together with the figures that produced it
type Valuation struct {
	Estimate        int           `json:"estimate"`
	FormattedValue  string        `json:"formattedValue"`
	BaseValue       float64       `json:"baseValue"`
	KnownBrand      bool          `json:"knownBrand"`
	Age             int           `json:"age"`
	AgeFactor       float64       `json:"ageFactor"`
	MileageFactor   float64       `json:"mileageFactor"`
	ConditionFactor float64       `json:"conditionFactor"`
	Condition       ConditionTier `json:"condition"`
	ReferenceYear   int           `json:"referenceYear"`
}

// ColorOption is a paint choice offered on the order form
type ColorOption struct {
	Value      string  `json:"value"`
	Label      string  `json:"label"`
	PriceDelta float64 `json:"priceDelta"`
}

// OrderQuoteRequest is the incremental order-form state used for the live summary
type OrderQuoteRequest struct {
	CarID    string `json:"carId"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// OrderQuote is the order summary shown next to the form
type OrderQuote struct {
	Selected       bool         `json:"selected"`
	Vehicle        *Vehicle     `json:"vehicle,omitempty"`
	Color          *ColorOption `json:"color,omitempty"`
	Quantity       int          `json:"quantity"`
	UnitPrice      float64      `json:"unitPrice"`
	Total          float64      `json:"total"`
	FormattedTotal string       `json:"formattedTotal"`
}
