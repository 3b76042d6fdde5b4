// CLAUDE:SUMMARY Official course catalog: line-delimited list of canonical names, loaded once and immutable.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnavailable signals that the official catalog could not be read.
// Callers log it and continue in pass-through mode; it is never fatal.
var ErrUnavailable = errors.New("official catalog unavailable")

// Catalog is the fixed reference list of canonical course names. It is loaded
// once at startup and never mutated afterwards; construct a new Catalog to
// pick up file changes.
type Catalog struct {
	names []string          // display names, file order
	byKey map[string]string // NormalizeKey(name) -> display name
}

// Load reads a line-delimited UTF-8 list of canonical course names, one per
// line, skipping blank lines. A missing or unreadable file returns an empty
// catalog wrapped in ErrUnavailable.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Catalog{byKey: map[string]string{}}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	c := &Catalog{byKey: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		c.names = append(c.names, name)
		key := NormalizeKey(name)
		if _, dup := c.byKey[key]; !dup {
			c.byKey[key] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return &Catalog{byKey: map[string]string{}}, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	return c, nil
}

// FromNames builds a catalog directly from a name list (tests, fakes).
func FromNames(names []string) *Catalog {
	c := &Catalog{byKey: make(map[string]string, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c.names = append(c.names, name)
		key := NormalizeKey(name)
		if _, dup := c.byKey[key]; !dup {
			c.byKey[key] = name
		}
	}
	return c
}

// Names returns the canonical names in load order. Callers must not mutate.
func (c *Catalog) Names() []string { return c.names }

// Len returns the number of canonical names.
func (c *Catalog) Len() int { return len(c.names) }

// ExactMatch returns the canonical display name whose comparison key equals
// NormalizeKey(name), if any.
func (c *Catalog) ExactMatch(name string) (string, bool) {
	display, ok := c.byKey[NormalizeKey(name)]
	return display, ok
}
