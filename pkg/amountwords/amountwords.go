// Package amountwords spells out monetary amounts in Spanish for printed
// acquisition orders, e.g. 38510 -> "TREINTA Y OCHO MIL QUINIENTOS DIEZ
// 00/100 BOLIVIANOS". Supports 0 through 999 999 999.
package amountwords

import (
	"fmt"
	"math"
	"strings"
)

var units = []string{"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"}

var teens = map[int]string{
	10: "diez", 11: "once", 12: "doce", 13: "trece", 14: "catorce", 15: "quince",
}

var tens = []string{"", "diez", "veinte", "treinta", "cuarenta", "cincuenta",
	"sesenta", "setenta", "ochenta", "noventa"}

var hundreds = []string{"", "cien", "doscientos", "trescientos", "cuatrocientos",
	"quinientos", "seiscientos", "setecientos", "ochocientos", "novecientos"}

// spellBelowThousand converts 0-999 into words.
func spellBelowThousand(n int) string {
	if n == 0 {
		return ""
	}
	if word, ok := teens[n]; ok {
		return word
	}
	var b strings.Builder
	if n >= 100 {
		h := n / 100
		if h == 1 && n%100 != 0 {
			b.WriteString("ciento ")
		} else {
			b.WriteString(hundreds[h] + " ")
		}
		n %= 100
	}
	switch {
	case n >= 20:
		b.WriteString(tens[n/10])
		n %= 10
		if n != 0 {
			b.WriteString(" y " + units[n])
		}
		n = 0
	case n >= 16:
		b.WriteString("dieci" + units[n-10])
		n = 0
	case n >= 10:
		b.WriteString(teens[n])
		n = 0
	}
	if n > 0 && n < 10 {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
			b.WriteString(" ")
		}
		b.WriteString(units[n])
	}
	return strings.TrimSpace(b.String())
}

// Bolivianos renders the amount in upper-case Spanish words with the
// centavos expressed as NN/100.
func Bolivianos(amount float64) string {
	whole := int(math.Trunc(amount))
	cents := int(math.Round((amount - math.Trunc(amount)) * 100))
	if cents >= 100 {
		whole++
		cents -= 100
	}

	if whole == 0 {
		return fmt.Sprintf("CERO %02d/100 BOLIVIANOS", cents)
	}

	millions := whole / 1_000_000
	thousands := (whole % 1_000_000) / 1_000
	rest := whole % 1_000

	var parts []string
	if millions > 0 {
		suffix := "millón"
		if millions > 1 {
			suffix = "millones"
		}
		parts = append(parts, spellBelowThousand(millions)+" "+suffix)
	}
	if thousands > 0 {
		parts = append(parts, spellBelowThousand(thousands)+" mil")
	}
	if rest > 0 {
		parts = append(parts, spellBelowThousand(rest))
	}

	text := strings.ToUpper(strings.Join(parts, " "))
	return fmt.Sprintf("%s %02d/100 BOLIVIANOS", text, cents)
}
