// Package i18n looks up console messages in YAML translation catalogs.
package i18n

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed en.yaml
var defaultCatalog []byte

// Catalog maps message keys to text. Keys take the form
// "namespace:path.to.message"; the first level of a catalog file is the
// namespace.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]string
}

// New returns an empty catalog. T on an empty catalog returns the fallbacks.
func New() *Catalog {
	return &Catalog{messages: make(map[string]string)}
}

// Default returns the built-in English catalog.
func Default() *Catalog {
	c := New()
	if err := c.Merge(defaultCatalog); err != nil {
		panic(fmt.Sprintf("i18n: built-in catalog is invalid: %v", err))
	}
	return c
}

// Load returns the built-in catalog overlaid with the file at path. An empty
// path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied catalog
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	if err := c.Merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Merge adds the messages of a YAML document, replacing existing keys.
func (c *Catalog) Merge(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	flat := make(map[string]string)
	for namespace, tree := range doc {
		if err := flatten(flat, namespace+":", tree); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range flat {
		c.messages[k] = v
	}
	return nil
}

func flatten(out map[string]string, prefix string, node any) error {
	switch v := node.(type) {
	case map[string]any:
		sep := "."
		if strings.HasSuffix(prefix, ":") {
			sep = ""
		}
		for k, child := range v {
			if err := flatten(out, prefix+sep+k, child); err != nil {
				return err
			}
		}
	case string:
		out[prefix] = v
	case nil:
	default:
		return fmt.Errorf("message %q must be a string, got %T", prefix, node)
	}
	return nil
}

// T returns the message for key, or fallback when the key is unknown.
func (c *Catalog) T(key, fallback string) string {
	if c == nil {
		return fallback
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if msg, ok := c.messages[key]; ok && msg != "" {
		return msg
	}
	return fallback
}

// Keys returns all known keys, sorted.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
