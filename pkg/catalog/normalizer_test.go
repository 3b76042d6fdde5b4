package catalog

import "testing"

// fixedMatcher returns a preset candidate and score regardless of input.
type fixedMatcher struct {
	name  string
	score float64
}

func (m fixedMatcher) BestMatch(string, []string) (string, float64) {
	return m.name, m.score
}

func newTestNormalizer(t *testing.T, names []string, aliases map[string]string, m Matcher) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(FromNames(names), NewAliasMap(aliases), m, 0)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestNormalizeFuzzyMatch(t *testing.T) {
	n := newTestNormalizer(t, []string{"Probabilidad y Estadística", "Estructura de Datos"}, nil, nil)

	res := n.Normalize("Proba y Estadistica")
	if !res.Matched {
		t.Fatalf("Matched = false, score %.1f", res.Score)
	}
	if res.Canonical != "Probabilidad y Estadística" {
		t.Errorf("Canonical = %q, want Probabilidad y Estadística", res.Canonical)
	}
	if res.Score < Threshold {
		t.Errorf("Score = %.1f, want >= %d", res.Score, Threshold)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer(t, []string{"Probabilidad y Estadística"}, nil, nil)

	inputs := []string{"Proba y Estadistica", "curso desconocido", "", "  "}
	for _, in := range inputs {
		first := n.Normalize(in)
		second := n.Normalize(in)
		if first != second {
			t.Errorf("Normalize(%q) not stable: %+v then %+v", in, first, second)
		}
	}
}

func TestNormalizeThresholdBoundary(t *testing.T) {
	names := []string{"Probabilidad y Estadística"}

	at := newTestNormalizer(t, names, nil, fixedMatcher{name: names[0], score: 85})
	if res := at.Normalize("algo"); !res.Matched || res.Canonical != names[0] {
		t.Errorf("score exactly 85 must match, got %+v", res)
	}

	below := newTestNormalizer(t, names, nil, fixedMatcher{name: names[0], score: 84})
	if res := below.Normalize("algo"); res.Matched || res.Canonical != "algo" {
		t.Errorf("score 84 must pass through, got %+v", res)
	}
}

func TestNormalizeEmptyCatalogPassThrough(t *testing.T) {
	n := newTestNormalizer(t, nil, nil, nil)

	res := n.Normalize("  Proba y Estadistica ")
	if res.Matched || res.Score != 0 {
		t.Errorf("empty catalog must not match, got %+v", res)
	}
	if res.Canonical != "Proba y Estadistica" {
		t.Errorf("Canonical = %q, want trimmed input", res.Canonical)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := newTestNormalizer(t, []string{"Estructura de Datos"}, nil, nil)

	for _, in := range []string{"", "   ", "\t\n"} {
		res := n.Normalize(in)
		if res.Matched || res.Score != 0 || res.Canonical != "" {
			t.Errorf("Normalize(%q) = %+v, want empty pass-through", in, res)
		}
	}
}

func TestNormalizeAliasBeforeFuzzy(t *testing.T) {
	aliases := map[string]string{"POO": "Programación Orientada a Objetos"}
	n := newTestNormalizer(t, []string{"Programación Orientada a Objetos"}, aliases, nil)

	res := n.Normalize("POO")
	if !res.Matched || res.Canonical != "Programación Orientada a Objetos" {
		t.Errorf("alias lookup failed: %+v", res)
	}

	// Key-normalized alias spelling resolves too.
	res = n.Normalize("poo")
	if !res.Matched || res.Canonical != "Programación Orientada a Objetos" {
		t.Errorf("case-insensitive alias lookup failed: %+v", res)
	}
}

func TestNormalizeCaching(t *testing.T) {
	n := newTestNormalizer(t, []string{"Estructura de Datos"}, nil, nil)

	n.Normalize("Estructuras de Datos")
	n.Normalize("Estructuras de Datos")
	if n.CacheLen() != 1 {
		t.Errorf("CacheLen = %d, want 1 distinct cached spelling", n.CacheLen())
	}
}
