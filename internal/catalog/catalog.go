// Package catalog holds the design options a project can be scoped with
// (water source, pressure, controller, ...).
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace override file, read from the workspace dir.
const FileName = "catalog.yaml"

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Kinds lists the option kinds in form order.
var Kinds = []string{"waterSource", "pressure", "meterSize", "sleeving", "mainline", "lateral", "controller", "backflow", "valve"}

type Option struct {
	ID          int               `yaml:"id" json:"id"`
	Value       string            `yaml:"value" json:"value"`
	DisplayName string            `yaml:"displayName" json:"displayName"`
	IsActive    bool              `yaml:"isActive" json:"isActive"`
	SortOrder   int               `yaml:"sortOrder" json:"sortOrder"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

type Catalog struct {
	Kinds    map[string][]Option `yaml:"kinds" json:"kinds"`
	Defaults map[string]string   `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// ValidationError reports a value that is not an active option of its kind.
type ValidationError struct {
	Kind  string
	Value string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Kind, e.Value)
}

var ErrUnknownKind = errors.New("unknown catalog kind")

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.Kinds == nil {
		c.Kinds = map[string][]Option{}
	}
	if c.Defaults == nil {
		c.Defaults = map[string]string{}
	}
	return &c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Load returns the embedded catalog with any kinds and defaults from
// dir/catalog.yaml layered on top. A missing file is not an error.
func Load(dir string) (*Catalog, error) {
	base := Default()
	if strings.TrimSpace(dir) == "" {
		return base, nil
	}
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return nil, err
	}
	over, err := Parse(b)
	if err != nil {
		return nil, err
	}
	for k, opts := range over.Kinds {
		base.Kinds[k] = opts
	}
	for k, v := range over.Defaults {
		base.Defaults[k] = v
	}
	return base, nil
}

func (c *Catalog) Has(kind string) bool {
	_, ok := c.Kinds[kind]
	return ok
}

// Active returns the active options of kind ordered by sortOrder, then displayName.
func (c *Catalog) Active(kind string) ([]Option, error) {
	opts, ok := c.Kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if o.IsActive {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

// Validate returns the canonical value for kind. Matching ignores case.
func (c *Catalog) Validate(kind, value string) (string, error) {
	opts, err := c.Active(kind)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	for _, o := range opts {
		if strings.EqualFold(o.Value, value) {
			return o.Value, nil
		}
	}
	return "", ValidationError{Kind: kind, Value: value}
}

// DefaultDesign returns the configured default of every kind that has a valid one.
func (c *Catalog) DefaultDesign() map[string]string {
	out := map[string]string{}
	for k, v := range c.Defaults {
		if canon, err := c.Validate(k, v); err == nil {
			out[k] = canon
		}
	}
	return out
}

// SortedKinds returns every kind present, known kinds first in form order.
func (c *Catalog) SortedKinds() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, k := range Kinds {
		if c.Has(k) {
			out = append(out, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range c.Kinds {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// DefaultYAML returns a copy of the embedded catalog source.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultCatalogYAML...)
}
