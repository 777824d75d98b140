// Package roster canonicalizes character labels produced by a generator.
//
// Generators are inconsistent about names: the same character appears with
// and without titles, in different case, or transliterated into another
// script. A Table maps those raw labels to one canonical name per character
// so that continuity text and role search see a single identity.
//
// Normalize is a total function. It never fails and never loses data: a label
// that matches nothing in the table comes back byte-for-byte unchanged.
//
// # Matching
//
// A label is trimmed, lower-cased and NFC-normalized into a key. The key is
// looked up exactly first. Failing that, patterns are tried in match order,
// longest pattern first (by rune count) with ties kept in roster file order;
// the first pattern that contains the key, or is contained in it, wins.
package roster

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var defaultRoster []byte

// Character is one roster entry: a canonical name and its raw variations.
type Character struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type rosterFile struct {
	Characters []Character `yaml:"characters"`
}

// Pattern is a normalized raw label and the canonical name it maps to.
type Pattern struct {
	Pattern   string
	Canonical string
}

// Table is an immutable canonicalization table. It is safe for concurrent use.
type Table struct {
	exact      map[string]string
	ordered    []Pattern // match order
	variations map[string][]string
	canonicals []string
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Load(bytes.NewReader(defaultRoster))
})

// Default returns the table built from the embedded roster.
func Default() *Table {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("roster: embedded roster is invalid: %v", err))
	}
	return t
}

// LoadFile reads a roster YAML file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a roster YAML document.
func Load(r io.Reader) (*Table, error) {
	var doc rosterFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return New(doc.Characters)
}

// New builds a table from characters in priority order. Each canonical name
// is registered as a pattern for itself. It is an error for one pattern to
// map to two different canonical names.
func New(characters []Character) (*Table, error) {
	t := &Table{
		exact:      make(map[string]string),
		variations: make(map[string][]string),
	}

	for i, c := range characters {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("character %d: name is required", i)
		}
		if _, seen := t.variations[name]; !seen {
			t.canonicals = append(t.canonicals, name)
			t.variations[name] = []string{}
		}

		for _, raw := range append([]string{name}, c.Aliases...) {
			key := normalizeKey(raw)
			if key == "" {
				return nil, fmt.Errorf("character %q: empty alias", name)
			}
			if existing, ok := t.exact[key]; ok {
				if existing != name {
					return nil, fmt.Errorf("alias %q maps to both %q and %q", key, existing, name)
				}
				continue
			}
			t.exact[key] = name
			t.ordered = append(t.ordered, Pattern{Pattern: key, Canonical: name})
			t.variations[name] = append(t.variations[name], key)
		}
	}

	sort.SliceStable(t.ordered, func(i, j int) bool {
		return utf8.RuneCountInString(t.ordered[i].Pattern) > utf8.RuneCountInString(t.ordered[j].Pattern)
	})
	sort.Strings(t.canonicals)

	return t, nil
}

// Normalize maps a raw role label to its canonical name, or returns it
// unchanged when nothing in the table applies.
func (t *Table) Normalize(name string) string {
	if name == "" {
		return name
	}

	key := normalizeKey(name)
	if key == "" {
		return name
	}

	if canonical, ok := t.exact[key]; ok {
		return canonical
	}

	for _, p := range t.ordered {
		if strings.Contains(key, p.Pattern) || strings.Contains(p.Pattern, key) {
			return p.Canonical
		}
	}

	return name
}

// NormalizeValue applies t.Normalize to string values and returns any other
// value, including nil, unchanged.
func NormalizeValue(t *Table, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return t.Normalize(s)
}

// Canonicals returns every canonical name in the table, sorted.
func (t *Table) Canonicals() []string {
	out := make([]string, len(t.canonicals))
	copy(out, t.canonicals)
	return out
}

// Variations returns the normalized patterns that map to canonical, in
// roster order. The result is empty for an unknown name.
func (t *Table) Variations(canonical string) []string {
	v := t.variations[canonical]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Patterns returns every pattern in match order.
func (t *Table) Patterns() []Pattern {
	out := make([]Pattern, len(t.ordered))
	copy(out, t.ordered)
	return out
}

func normalizeKey(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}
