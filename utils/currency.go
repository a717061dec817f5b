package utils

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ParseAmount converts pt-BR formatted money ("R$ 1.234,56") into a number.
// Periods are thousands separators and the comma is the decimal separator.
// Anything that cannot be parsed yields 0.
func ParseAmount(raw string) float64 {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, raw)
	if clean == "" {
		return 0
	}

	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return amount
}

// FormatAmount renders value with two decimals in pt-BR style (1.234,56).
func FormatAmount(value float64) string {
	rounded := math.Round(math.Abs(value)*100) / 100
	sign := ""
	if value < 0 && rounded != 0 {
		sign = "-"
	}
	p := message.NewPrinter(language.BrazilianPortuguese)
	return sign + p.Sprint(number.Decimal(rounded, number.Scale(2)))
}
