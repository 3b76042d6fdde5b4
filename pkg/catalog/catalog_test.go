package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materias.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalogFile(t, "Probabilidad y Estadística\n\n  Estructura de Datos  \n\nCálculo I\n")

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("Len = %d, want 3", cat.Len())
	}
	want := []string{"Probabilidad y Estadística", "Estructura de Datos", "Cálculo I"}
	for i, name := range cat.Names() {
		if name != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, name, want[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if cat == nil || cat.Len() != 0 {
		t.Errorf("missing file must yield a usable empty catalog, got %+v", cat)
	}
}

func TestExactMatch(t *testing.T) {
	cat := FromNames([]string{"Probabilidad y Estadística", "Estructura de Datos"})

	got, ok := cat.ExactMatch("probabilidad y estadistica")
	if !ok || got != "Probabilidad y Estadística" {
		t.Errorf("ExactMatch = (%q, %v), want canonical display name", got, ok)
	}
	if _, ok := cat.ExactMatch("Teoría de Grafos"); ok {
		t.Error("ExactMatch matched a name not in the catalog")
	}
}
