package catalog

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Estadística", "estadistica"},
		{"estadistica", "estadistica"},
		{"PROGRAMACIÓN", "programacion"},
		{"  Estructura  de   Datos  ", "estructura de datos"},
		{"Cálculo I", "calculo i"},
		{"Ñoño", "nono"},
		{"", ""},
		{"   ", ""},
		{"simple", "simple"},
	}
	for _, tt := range tests {
		got := NormalizeKey(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{"Probabilidad y Estadística", "  Álgebra   Lineal ", "POO", ""}
	for _, in := range inputs {
		once := NormalizeKey(in)
		twice := NormalizeKey(once)
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeKeyAccentCaseInvariance(t *testing.T) {
	if NormalizeKey("Estadística") != NormalizeKey("estadistica") {
		t.Errorf("accent/case variants produced different keys: %q vs %q",
			NormalizeKey("Estadística"), NormalizeKey("estadistica"))
	}
}
