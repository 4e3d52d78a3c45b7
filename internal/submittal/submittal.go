// Package submittal derives the review view of a materials list: every row
// annotated with whether it can be submitted as-is.
package submittal

import (
	"strings"

	"iml-cli/internal/model"
)

type Status string

const (
	StatusNormal    Status = "normal"
	StatusDuplicate Status = "duplicate"
	StatusInvalid   Status = "invalid"
)

type Row struct {
	SKU     string `json:"sku"`
	Content string `json:"content"`
	Line    string `json:"line"`
	IsChild bool   `json:"isChild,omitempty"`
	Status  Status `json:"status"`
}

type Section struct {
	Name       string `json:"name"`
	ColumnName string `json:"columnName"`
	Rows       []Row  `json:"rows"`
}

type Submittal struct {
	ListID   string    `json:"listId"`
	ListName string    `json:"listName"`
	Sections []Section `json:"sections"`
}

type Summary struct {
	Total     int `json:"total"`
	Normal    int `json:"normal"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
}

// Derive maps every section and row of l, in order. SKU duplicates are
// counted across the whole list, not per section.
func Derive(l model.MaterialsList) Submittal {
	counts := map[string]int{}
	for _, s := range l.Sections {
		for _, it := range s.Items {
			if sku := strings.TrimSpace(it.SKU); sku != "" {
				counts[sku]++
			}
		}
	}

	out := Submittal{ListID: l.ID, ListName: l.Name, Sections: make([]Section, 0, len(l.Sections))}
	for _, s := range l.Sections {
		sec := Section{Name: s.Name, ColumnName: s.ColumnName, Rows: make([]Row, 0, len(s.Items))}
		for _, it := range s.Items {
			sku := strings.TrimSpace(it.SKU)
			row := Row{SKU: sku, Content: it.Content, Line: it.Line, IsChild: it.IsChild, Status: StatusNormal}
			switch {
			case sku != "" && counts[sku] > 1:
				row.Status = StatusDuplicate
			case !it.IsChild && sku == "" && strings.TrimSpace(it.Content) == "":
				row.Status = StatusInvalid
			}
			sec.Rows = append(sec.Rows, row)
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}

func (s Submittal) Summary() Summary {
	var sum Summary
	for _, sec := range s.Sections {
		for _, r := range sec.Rows {
			sum.Total++
			switch r.Status {
			case StatusDuplicate:
				sum.Duplicate++
			case StatusInvalid:
				sum.Invalid++
			default:
				sum.Normal++
			}
		}
	}
	return sum
}

// Filter keeps rows whose SKU or content contains term (case-insensitive).
// Sections left empty are dropped.
func (s Submittal) Filter(term string) Submittal {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s
	}
	out := Submittal{ListID: s.ListID, ListName: s.ListName, Sections: []Section{}}
	for _, sec := range s.Sections {
		keep := Section{Name: sec.Name, ColumnName: sec.ColumnName, Rows: []Row{}}
		for _, r := range sec.Rows {
			if strings.Contains(strings.ToLower(r.SKU), term) || strings.Contains(strings.ToLower(r.Content), term) {
				keep.Rows = append(keep.Rows, r)
			}
		}
		if len(keep.Rows) > 0 {
			out.Sections = append(out.Sections, keep)
		}
	}
	return out
}
