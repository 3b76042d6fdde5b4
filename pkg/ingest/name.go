package ingest

import (
	"strings"

	"github.com/hazyhaar/curso-registry/pkg/catalog"
)

// Scraped profile titles carry institutional suffixes after the name.
var nameSuffixes = []string{" - UAM", " - Universidad", " - MisProfesores"}

// CleanProfessorName strips the institutional suffix from a scraped profile
// title ("Juan Pérez - UAM (Azcapotzalco) - MisProfesores.com" -> "Juan Pérez").
func CleanProfessorName(full string) string {
	for _, suffix := range nameSuffixes {
		if i := strings.Index(full, suffix); i >= 0 {
			full = full[:i]
		}
	}
	return strings.TrimSpace(full)
}

// Slugify derives a stable URL-safe identifier from a professor name:
// the accent-free lowercase comparison key with hyphens for spaces.
func Slugify(name string) string {
	key := catalog.NormalizeKey(name)
	var b strings.Builder
	b.Grow(len(key))
	lastHyphen := true
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
