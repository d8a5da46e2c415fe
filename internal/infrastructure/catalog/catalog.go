// Package catalog loads the per-document source metadata manifest. The
// manifest is an offline artifact; it enriches responses with title and link
// and never influences ranking.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calyptra/regqa/internal/core/domain"
)

type manifestEntry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// Catalog maps source document filenames to their metadata.
type Catalog struct {
	sources map[string]domain.SourceMeta
}

// Load reads the JSON manifest from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source manifest: %w", err)
	}
	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse source manifest: %w", err)
	}
	return fromEntries(entries), nil
}

func fromEntries(entries []manifestEntry) *Catalog {
	sources := make(map[string]domain.SourceMeta, len(entries))
	for _, e := range entries {
		sources[e.Filename] = domain.SourceMeta{Title: e.Title, URL: e.URL}
	}
	return &Catalog{sources: sources}
}

// New builds a catalog from an existing metadata map. Used by tests.
func New(sources map[string]domain.SourceMeta) *Catalog {
	if sources == nil {
		sources = map[string]domain.SourceMeta{}
	}
	return &Catalog{sources: sources}
}

// Lookup returns the metadata for a source document. Missing entries are a
// degraded-response case, not an error.
func (c *Catalog) Lookup(sourceFile string) (domain.SourceMeta, bool) {
	meta, ok := c.sources[sourceFile]
	return meta, ok
}

// Entries exposes the manifest for the fetcher, which downloads every listed
// source document.
func (c *Catalog) Entries() map[string]domain.SourceMeta {
	out := make(map[string]domain.SourceMeta, len(c.sources))
	for k, v := range c.sources {
		out[k] = v
	}
	return out
}
