package pricing

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/johnrirwin/autolot/internal/models"
)

const (
	MinQuantity = 1
	MaxQuantity = 5
)

var colorOptions = []models.ColorOption{
	{Value: "white", Label: "Pearl White", PriceDelta: 0},
	{Value: "black", Label: "Obsidian Black", PriceDelta: 500},
	{Value: "silver", Label: "Metallic Silver", PriceDelta: 500},
	{Value: "red", Label: "Vibrant Red", PriceDelta: 1000},
	{Value: "blue", Label: "Ocean Blue", PriceDelta: 1000},
}

// ColorOptions returns the paint choices offered on the order form
func ColorOptions() []models.ColorOption {
	return append([]models.ColorOption(nil), colorOptions...)
}

// FindColor looks up a paint choice by its value key
func FindColor(value string) (*models.ColorOption, bool) {
	for _, c := range colorOptions {
		if c.Value == value {
			c := c
			return &c, true
		}
	}
	return nil, false
}

// TotalPrice returns (vehicle.Price + color.PriceDelta) * quantity.
// Quantity is checked first and must be within [MinQuantity, MaxQuantity].
// A nil vehicle means nothing is selected yet and totals zero; a nil color adds nothing.
func TotalPrice(vehicle *models.Vehicle, color *models.ColorOption, quantity int) (float64, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return 0, fmt.Errorf("%w: quantity %d not in [%d, %d]", ErrOutOfRange, quantity, MinQuantity, MaxQuantity)
	}
	if vehicle == nil {
		return 0, nil
	}

	unit := vehicle.Price
	if color != nil {
		unit += color.PriceDelta
	}
	return unit * float64(quantity), nil
}

// Quote builds the live order summary. Unknown color keys contribute no delta
// while the customer is still filling in the form.
func Quote(vehicle *models.Vehicle, colorKey string, quantity int) (*models.OrderQuote, error) {
	color, _ := FindColor(colorKey)

	total, err := TotalPrice(vehicle, color, quantity)
	if err != nil {
		return nil, err
	}

	q := &models.OrderQuote{
		Selected:       vehicle != nil,
		Color:          color,
		Quantity:       quantity,
		Total:          total,
		FormattedTotal: FormatUSD(total),
	}
	if vehicle != nil {
		v := vehicle.Clone()
		q.Vehicle = &v
		q.UnitPrice = vehicle.Price
		if color != nil {
			q.UnitPrice += color.PriceDelta
		}
	}
	return q, nil
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount as US dollars with thousands separators, e.g. "$80,800".
// Whole amounts drop the cents.
func FormatUSD(amount float64) string {
	if amount == math.Trunc(amount) {
		return usd.Sprintf("$%d", int64(amount))
	}
	return usd.Sprintf("$%.2f", amount)
}
