package amountwords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBolivianos(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		want   string
	}{
		{"zero", 0, "CERO 00/100 BOLIVIANOS"},
		{"single unit", 1, "UNO 00/100 BOLIVIANOS"},
		{"teen", 15, "QUINCE 00/100 BOLIVIANOS"},
		{"dieci range", 17, "DIECISIETE 00/100 BOLIVIANOS"},
		{"tens with unit", 42, "CUARENTA Y DOS 00/100 BOLIVIANOS"},
		{"exact hundred", 100, "CIEN 00/100 BOLIVIANOS"},
		{"ciento", 101, "CIENTO UNO 00/100 BOLIVIANOS"},
		{"hundreds", 999, "NOVECIENTOS NOVENTA Y NUEVE 00/100 BOLIVIANOS"},
		{"compact form", 38510, "TREINTA Y OCHO MIL QUINIENTOS DIEZ 00/100 BOLIVIANOS"},
		{"with cents", 1250.75, "UNO MIL DOSCIENTOS CINCUENTA 75/100 BOLIVIANOS"},
		{"one million", 1_000_000, "UNO MILLÓN 00/100 BOLIVIANOS"},
		{"several millions", 2_000_340, "DOS MILLONES TRESCIENTOS CUARENTA 00/100 BOLIVIANOS"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Bolivianos(tc.amount))
		})
	}
}

func TestBolivianosCentRounding(t *testing.T) {
	// 0.999 rounds up into the next whole unit.
	assert.Equal(t, "UNO 00/100 BOLIVIANOS", Bolivianos(0.999))
	assert.Equal(t, "DIEZ 50/100 BOLIVIANOS", Bolivianos(10.50))
}
