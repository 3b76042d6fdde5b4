package catalog

import "testing"

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"---", true},
		{"-", true},
		{"N/A", true},
		{"n/a", true},
		{"N.A.", true},
		{"0", true},
		{"42", true},
		{"...", true},
		{"???", true},
		{"", true},
		{"   ", true},
		{"Ninguno", true},
		{"Estructura de Datos", false},
		{"Cálculo I", false},
		{"Física 1", false},
	}
	for _, tt := range tests {
		if got := IsSentinel(tt.input); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
