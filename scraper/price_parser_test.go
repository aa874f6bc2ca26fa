package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"1 234,56 ₽", 1234.56},
		{"$1,234.56", 1234.56},
		{"1.234.567", 1234567},
		{"1,234,567", 1234567},
		{"1.234,56 €", 1234.56},
		{"12 990 ₽", 12990},
		{"1999", 1999},
		{"1999.00", 1999},
		{"99,9", 99.9},
		{"Цена: 4 590 руб.", 4590},
		{"Цена - 500 ₽", 500},
		{"  7.5 USD ", 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParsePrice(tt.text)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, text := range []string{"", "   ", "0", "0,00", "-5", "− 10 ₽", "Цена: -500", "free", "₽", ",."} {
		t.Run(text, func(t *testing.T) {
			assert.Nil(t, ParsePrice(text))
		})
	}
}
