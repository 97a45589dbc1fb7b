package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders a price for chat output: trailing zeros trimmed,
// thousand separators once prices reach five digits.
func FormatPrice(price float64) string {
	if price >= 10000 {
		p := message.NewPrinter(language.English)
		grouped := p.Sprintf("%.2f", price)
		grouped = strings.TrimRight(grouped, "0")
		return strings.TrimSuffix(grouped, ".")
	}
	return humanize.Ftoa(price)
}

// FormatNullablePrice renders an unresolved price as N/A.
func FormatNullablePrice(price *float64) string {
	if price == nil {
		return "N/A"
	}
	return FormatPrice(*price)
}
