package editor

import (
	"errors"
	"fmt"
	"strings"

	"iml-cli/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCategories are the section names offered when building a list.
var DefaultCategories = []string{
	"Dry / Point Source Irrigation",
	"Lateral Line Fittings",
	"Point of Connection",
	"Rotor Irrigation",
	"Spray Irrigation",
	"Extra Materials / Misc. Items",
	"Mainline Fittings",
	"Remote Control Valves",
	"Sleeving",
}

const otherPrefix = "other:"

// NormalizeSectionName accepts a catalog category or "Other:<custom name>".
// Custom names are title-cased. A bare "Other" yields "".
func NormalizeSectionName(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "other") {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(name), otherPrefix) {
		custom := strings.Join(strings.Fields(name[len(otherPrefix):]), " ")
		if custom == "" {
			return ""
		}
		return cases.Title(language.English).String(custom)
	}
	for _, c := range DefaultCategories {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return name
}

// AddSections appends empty sections, skipping blanks and names already
// present (case-insensitive). Returns the names actually added.
func (e *Editor) AddSections(names ...string) []string {
	seen := map[string]bool{}
	for _, s := range e.list.Sections {
		seen[strings.ToLower(s.Name)] = true
	}
	var added []string
	for _, raw := range names {
		n := NormalizeSectionName(raw)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		e.list.Sections = append(e.list.Sections, model.Section{Name: n, ColumnName: n, Items: []model.Item{}})
		added = append(added, n)
	}
	if len(added) > 0 {
		e.drag = nil
		e.commit()
	}
	return added
}

// ItemPatch carries in-place edits; nil fields are left alone.
type ItemPatch struct {
	SKU      *string `json:"sku,omitempty"`
	Content  *string `json:"content,omitempty"`
	Quantity *string `json:"quantity,omitempty"`
	UOM      *string `json:"uom,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

var ErrInvalidPosition = errors.New("invalid item position")

// EditItem applies patch to the row in place. Unlike structural operations
// it reports bad input, since a typo in a unit code should not be dropped
// silently.
func (e *Editor) EditItem(section, item int, patch ItemPatch) (bool, error) {
	it, ok := e.item(Position{Section: section, Item: item})
	if !ok {
		return false, ErrInvalidPosition
	}
	next := *it
	if patch.SKU != nil {
		next.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.Quantity != nil {
		next.Quantity = strings.TrimSpace(*patch.Quantity)
	}
	if patch.UOM != nil {
		u, ok := model.ParseUOM(*patch.UOM)
		if !ok {
			return false, fmt.Errorf("invalid uom: %q", *patch.UOM)
		}
		next.UOM = u
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	if next == *it {
		return false, nil
	}
	*it = next
	e.commit()
	return true, nil
}

// Search returns positions of rows whose sku, content or notes contain term
// (case-insensitive). An empty term matches nothing.
func (e *Editor) Search(term string) []Position {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []Position
	for si, s := range e.list.Sections {
		for ii, it := range s.Items {
			if strings.Contains(strings.ToLower(it.SKU), term) ||
				strings.Contains(strings.ToLower(it.Content), term) ||
				strings.Contains(strings.ToLower(it.Notes), term) {
				out = append(out, Position{Section: si, Item: ii})
			}
		}
	}
	return out
}
