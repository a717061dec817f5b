package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
	assert.Equal(t, 1234.56, ParseAmount("R$ 1.234,56"))
	assert.Equal(t, 142000.00, ParseAmount("142.000,00"))
	assert.Equal(t, 37.88, ParseAmount("37,88"))
	assert.Equal(t, 1500.0, ParseAmount("1.500"))
}

func TestParseAmountNeverFails(t *testing.T) {
	// Two commas cannot become a number.
	assert.Equal(t, 0.0, ParseAmount("1,2,3"))
	assert.Equal(t, 0.0, ParseAmount("..."))
	assert.Equal(t, 0.0, ParseAmount(","))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0,00", FormatAmount(0))
	assert.Equal(t, "37,88", FormatAmount(37.88))
	assert.Equal(t, "999,90", FormatAmount(999.9))
	assert.Equal(t, "1.234,56", FormatAmount(1234.56))
	assert.Equal(t, "142.000,00", FormatAmount(142000))
	assert.Equal(t, "1.234.567,89", FormatAmount(1234567.89))
	assert.Equal(t, "-1.000,50", FormatAmount(-1000.5))
	assert.Equal(t, "0,00", FormatAmount(-0.001))
	assert.Equal(t, "-0,01", FormatAmount(-0.01))
	assert.Equal(t, "10.000,10", FormatAmount(10000.1))
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 0.01, 0.1, 1, 9.99, 50, 50.01, 123.45, 999.99, 1000, 1234.56,
		99999.99, 142000, 1000000.01, 987654321.12}
	for _, v := range values {
		assert.Equal(t, v, ParseAmount(FormatAmount(v)), "value %v", v)
	}

	for cents := int64(0); cents < 300000; cents += 997 {
		v := float64(cents) / 100
		assert.Equal(t, v, ParseAmount(FormatAmount(v)), "cents %d", cents)
	}
}
