package helpers

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"restaurant-admin/models"
)

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// ToBaseUnits converts a user-entered quantity into grams or pieces.
// Count ignores unit; weight multiplies kilograms by 1000 and passes anything else through.
func ToBaseUnits(quantity float64, kind models.MeasurementKind, unit string) float64 {
	if kind == models.KindCount {
		return quantity
	}
	if unit == models.UnitKilogram {
		return quantity * 1000
	}
	return quantity
}

// Round2 rounds half away from zero to two decimals, the precision stored on write.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatNumber renders v with en-US grouping and a fixed number of decimals.
func FormatNumber(v float64, decimals int) string {
	return displayPrinter.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// FormatQuantity renders a base-unit quantity for people:
// "1.50 kg (1,500 g)", "250 g" or "12 pcs".
func FormatQuantity(quantity float64, kind models.MeasurementKind) string {
	if kind == models.KindCount {
		return FormatNumber(quantity, 0) + " pcs"
	}
	if quantity >= 1000 {
		return FormatNumber(quantity/1000, 2) + " kg (" + FormatNumber(quantity, 0) + " g)"
	}
	return FormatNumber(quantity, 0) + " g"
}
