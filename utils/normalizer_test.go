package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOCRText(t *testing.T) {
	assert.Equal(t, "", NormalizeOCRText(""))
	assert.Equal(t, "VALOR 1.234,56", NormalizeOCRText("VALOR |1.234,56|"))
	assert.Equal(t, "R$ 11,00", NormalizeOCRText("R$ 1!,00"))
	assert.Equal(t, "Tota1", NormalizeOCRText("Total"))
	assert.Equal(t, "R 100,00", NormalizeOCRText("R$=100,00"))
	assert.Equal(t, "TOTAL = 5,00", NormalizeOCRText("TOTAL=5,00"))
	assert.Equal(t, "TOTAL = 5,00", NormalizeOCRText("TOTAL   =\t5,00"))
}

func TestNormalizeOCRTextKeepsLineBreaks(t *testing.T) {
	got := NormalizeOCRText("TOTAL\n=\n10,00")
	assert.Equal(t, "TOTAL\n = \n10,00", got)
}

func TestNormalizeOCRTextIdempotent(t *testing.T) {
	inputs := []string{
		"NOTA FISCAL 123 VALOR 37,88",
		"Total geral = R$ 142.000,00",
		"a==b $$== c",
		"|!l$=|",
		"linha 1\nlinha 2 = 3,00\n",
	}
	for _, in := range inputs {
		once := NormalizeOCRText(in)
		assert.Equal(t, once, NormalizeOCRText(once), "input %q", in)
	}
}
