// Package money converts between user-facing currency strings and float amounts.
//
// Parsing is intentionally not a decimal parser: every non-digit rune is
// discarded and the surviving digits are read as an integer number of
// centavos. "12,34", "12.34" and "R$ 12,34" all parse to 12.34. Stored data
// depends on this exact behavior, so it must not be "fixed".
package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Parse extracts the digits of text and interprets them as centavos.
// Text with no digits parses to 0.
func Parse(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cents, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return cents / 100
}

// Format renders amount as a grouped two-decimal currency string.
func Format(amount float64) string {
	return printer.Sprintf("R$ %.2f", Round2(amount))
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
