// Package localize resolves display strings from TOML catalogs.
package localize

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed en.toml
var englishCatalog []byte

// Catalog stores localized strings by key.
type Catalog struct {
	entries map[string]string
}

// englishEntries parses the embedded catalog once. Callers must not modify the result.
var englishEntries = sync.OnceValue(func() map[string]string {
	c, err := Parse(englishCatalog)
	if err != nil {
		// The embedded catalog is compiled in, so a parse failure is a build defect.
		panic(fmt.Sprintf("parse embedded catalog: %v", err))
	}
	return c.entries
})

// English returns a copy of the embedded English catalog.
func English() *Catalog {
	return &Catalog{entries: maps.Clone(englishEntries())}
}

// Parse decodes a flat TOML table of key/value strings.
func Parse(content []byte) (*Catalog, error) {
	entries := map[string]string{}
	if strings.TrimSpace(string(content)) == "" {
		return &Catalog{entries: entries}, nil
	}
	if err := toml.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog toml: %w", err)
	}
	return &Catalog{entries: entries}, nil
}

// Load returns the English catalog with the optional override file merged on top.
func Load(path string) (*Catalog, error) {
	c := English()
	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile merges an override file over the current entries. A missing file is ignored.
func (c *Catalog) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read catalog file: %w", err)
	}
	override, err := Parse(content)
	if err != nil {
		return err
	}
	c.Merge(override)
	return nil
}

// Merge copies every entry from other over c.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	for k, v := range other.entries {
		c.entries[k] = v
	}
}

// Lookup returns the string for key and whether it exists.
func (c *Catalog) Lookup(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.entries[key]
	return v, ok
}

// String returns the string for key, or the key itself when missing.
func (c *Catalog) String(key string) string {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return key
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
