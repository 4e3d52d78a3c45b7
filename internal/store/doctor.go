package store

import (
	"fmt"
	"strconv"
	"strings"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
)

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level   DoctorIssueLevel `json:"level"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	ListID  string           `json:"listId,omitempty"`
	Section int              `json:"section,omitempty"`
	Item    int              `json:"item,omitempty"`
}

type DoctorReport struct {
	Issues []DoctorIssue `json:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor checks the workspace state for structural problems: orphaned
// leading children, stale line numbers, unknown units and dangling ids.
func Doctor(db *DB) DoctorReport {
	issues := []DoctorIssue{}
	if db == nil {
		return DoctorReport{Issues: issues}
	}

	if id := strings.TrimSpace(db.CurrentActorID); id != "" {
		if _, ok := db.FindActor(id); !ok {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelWarn,
				Code:    "unknown_current_actor",
				Message: fmt.Sprintf("current actor %q does not exist", id),
			})
		}
	}

	seen := map[string]bool{}
	for _, l := range db.Lists {
		if seen[l.ID] {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "duplicate_list_id",
				Message: fmt.Sprintf("list id %q appears more than once", l.ID),
				ListID:  l.ID,
			})
		}
		seen[l.ID] = true

		if _, ok := db.FindProject(l.ProjectID); !ok {
			issues = append(issues, DoctorIssue{
				Level:   DoctorIssueLevelError,
				Code:    "unknown_project",
				Message: fmt.Sprintf("list references missing project %q", l.ProjectID),
				ListID:  l.ID,
			})
		}

		for si, sec := range l.Sections {
			if len(sec.Items) > 0 && sec.Items[0].IsChild {
				issues = append(issues, DoctorIssue{
					Level:   DoctorIssueLevelWarn,
					Code:    "orphan_child",
					Message: fmt.Sprintf("section %q starts with a child row", sec.Name),
					ListID:  l.ID,
					Section: si,
				})
			}
			for i, it := range sec.Items {
				if it.Line != strconv.Itoa(i+1) {
					issues = append(issues, DoctorIssue{
						Level:   DoctorIssueLevelWarn,
						Code:    "stale_line",
						Message: fmt.Sprintf("row has line %q, expected %d", it.Line, i+1),
						ListID:  l.ID,
						Section: si,
						Item:    i,
					})
				}
				if _, ok := model.ParseUOM(string(it.UOM)); !ok {
					issues = append(issues, DoctorIssue{
						Level:   DoctorIssueLevelError,
						Code:    "invalid_uom",
						Message: fmt.Sprintf("row has unknown unit %q", it.UOM),
						ListID:  l.ID,
						Section: si,
						Item:    i,
					})
				}
			}
		}
	}
	return DoctorReport{Issues: issues}
}

// DoctorFix renumbers every section and returns how many lists changed.
func DoctorFix(db *DB) int {
	if db == nil {
		return 0
	}
	changed := 0
	for li := range db.Lists {
		dirty := false
		for si := range db.Lists[li].Sections {
			items := db.Lists[li].Sections[si].Items
			for i := range items {
				if items[i].Line != strconv.Itoa(i+1) {
					dirty = true
					break
				}
			}
			editor.Renumber(items)
		}
		if dirty {
			changed++
		}
	}
	return changed
}
