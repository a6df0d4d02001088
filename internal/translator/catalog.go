package translator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/logging"
)

// Catalog is the ordered, load-once collection of translators. Catalog order
// is the tie-break for equal-priority resolution, so it is fixed at load and
// never reordered.
type Catalog struct {
	entries []*Translator
	byID    map[string]*Translator
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]*Translator)}
}

// Add appends a translator. The first entry wins on duplicate IDs.
func (c *Catalog) Add(t *Translator) {
	c.entries = append(c.entries, t)
	if _, exists := c.byID[t.ID]; !exists {
		c.byID[t.ID] = t
	}
}

// AddSource parses and appends one translator source. Returns false when the
// header fails to parse; the catalog is unchanged in that case.
func (c *Catalog) AddSource(source string) bool {
	t, ok := Parse(source)
	if !ok {
		return false
	}
	c.Add(t)
	return true
}

// Get returns the translator with the exact ID, or nil.
func (c *Catalog) Get(id string) *Translator {
	return c.byID[id]
}

// All returns the entries in catalog order.
func (c *Catalog) All() []*Translator {
	return append([]*Translator{}, c.entries...)
}

// Len returns the number of loaded translators.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// LoadDir loads every .js source under dir, in lexical filename order.
// Malformed sources are logged and skipped; one bad translator never fails
// the load. Only a missing or unreadable directory is an error.
func LoadDir(dir string, log *logging.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read translator dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".js") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	catalog := NewCatalog()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("skipping unreadable translator", zap.String("file", name), zap.Error(err))
			continue
		}
		if !catalog.AddSource(string(data)) {
			log.Warn("skipping malformed translator header", zap.String("file", name))
			continue
		}
	}

	log.Info("translator catalog loaded",
		zap.String("dir", dir),
		zap.Int("loaded", catalog.Len()),
		zap.Int("skipped", len(names)-catalog.Len()),
	)
	return catalog, nil
}
