package model

import (
	"strings"
	"time"
)

type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectSubmitted ProjectStatus = "submitted"
	ProjectInDesign  ProjectStatus = "in-design"
	ProjectComplete  ProjectStatus = "complete"
)

// Project is an irrigation project request. Design maps a catalog kind
// (e.g. "waterSource") to the chosen option value.
type Project struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Customer  string            `json:"customer,omitempty"`
	JobRef    string            `json:"jobRef,omitempty"`
	Status    ProjectStatus     `json:"status"`
	Design    map[string]string `json:"design,omitempty"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Archived  bool              `json:"archived"`
}

type ListStatus string

const (
	ListDraft    ListStatus = "draft"
	ListInReview ListStatus = "in-review"
	ListApproved ListStatus = "approved"
)

// UOM is a unit-of-measure short code.
type UOM string

const (
	UOMEach    UOM = "EA"
	UOMFeet    UOM = "FT"
	UOMLinFt   UOM = "LF"
	UOMBox     UOM = "BX"
	UOMBag     UOM = "BG"
	UOMCase    UOM = "CS"
	UOMPack    UOM = "PK"
	UOMRoll    UOM = "RL"
	UOMGallon  UOM = "GAL"
	UOMPound   UOM = "LB"
	DefaultUOM     = UOMEach
)

var uoms = []UOM{UOMEach, UOMFeet, UOMLinFt, UOMBox, UOMBag, UOMCase, UOMPack, UOMRoll, UOMGallon, UOMPound}

// UOMs returns the known unit codes in display order.
func UOMs() []UOM {
	return append([]UOM(nil), uoms...)
}

// ParseUOM normalizes s to a known unit code.
func ParseUOM(s string) (UOM, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultUOM, true
	}
	for _, u := range uoms {
		if string(u) == s {
			return u, true
		}
	}
	return "", false
}

// Item is one line of a materials list. It has no identity beyond its
// position in the section; Line is derived and rewritten on every
// structural change.
type Item struct {
	SKU      string `json:"sku"`
	Content  string `json:"content"`
	Quantity string `json:"quantity"`
	UOM      UOM    `json:"uom"`
	Notes    string `json:"notes"`
	Line     string `json:"line"`
	IsChild  bool   `json:"isChild,omitempty"`
}

type Section struct {
	Name       string `json:"name"`
	ColumnName string `json:"columnName"`
	Items      []Item `json:"items"`
}

// MaterialsList is an Interactive Materials List (IML).
type MaterialsList struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	Name      string     `json:"name"`
	Status    ListStatus `json:"status"`
	Sections  []Section  `json:"sections"`
	CreatedBy string     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so editors can mutate freely.
func (l MaterialsList) Clone() MaterialsList {
	out := l
	out.Sections = make([]Section, len(l.Sections))
	for i, s := range l.Sections {
		out.Sections[i] = s
		out.Sections[i].Items = append(make([]Item, 0, len(s.Items)), s.Items...)
	}
	return out
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	ActorID  string    `json:"actorId"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
