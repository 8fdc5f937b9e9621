package pricing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.English)

// FormatCurrency renders whole US dollars with thousands grouping, e.g. "$1,234"
func FormatCurrency(amount float64) string {
	whole := int64(math.Round(math.Abs(amount)))
	if amount < 0 && whole != 0 {
		return usd.Sprintf("-$%d", whole)
	}
	return usd.Sprintf("$%d", whole)
}
