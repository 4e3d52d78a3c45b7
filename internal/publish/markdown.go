package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"iml-cli/internal/model"
	"iml-cli/internal/store"
	"iml-cli/internal/submittal"
)

// childIndent prefixes child rows inside table cells.
const childIndent = "↳ "

func RenderListMarkdown(db *store.DB, listID string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	l, ok := db.FindList(strings.TrimSpace(listID))
	if !ok {
		return "", fmt.Errorf("list not found: %s", listID)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(l.Name))
	writeLn("")
	writeLn("- ID: " + l.ID)
	if p, ok := db.FindProject(l.ProjectID); ok {
		writeLn("- Project: " + strings.TrimSpace(p.Name) + " (" + p.ID + ")")
		if c := strings.TrimSpace(p.Customer); c != "" {
			writeLn("- Customer: " + c)
		}
		writeDesign(writeLn, p.Design)
	} else {
		writeLn("- Project: " + l.ProjectID)
	}
	writeLn("- Status: " + string(l.Status))
	if !l.UpdatedAt.IsZero() {
		writeLn("- Updated: " + l.UpdatedAt.UTC().Format("2006-01-02 15:04"))
	}

	for _, s := range l.Sections {
		writeLn("")
		writeLn("## " + s.Name)
		writeLn("")
		if len(s.Items) == 0 {
			writeLn("_No items._")
			continue
		}
		writeLn("| Line | SKU | Description | Qty | UOM | Notes |")
		writeLn("| ---: | --- | --- | ---: | --- | --- |")
		for _, it := range s.Items {
			sku := cell(it.SKU)
			if it.IsChild {
				sku = childIndent + sku
			}
			writeLn(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
				cell(it.Line), sku, cell(it.Content), cell(it.Quantity), cell(string(it.UOM)), cell(it.Notes)))
		}
	}
	return buf.String(), nil
}

func writeDesign(writeLn func(string), design map[string]string) {
	if len(design) == 0 {
		return
	}
	keys := make([]string, 0, len(design))
	for k := range design {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+design[k])
	}
	writeLn("- Design: " + strings.Join(parts, ", "))
}

func RenderSubmittalMarkdown(s submittal.Submittal) string {
	var buf bytes.Buffer
	sum := s.Summary()
	fmt.Fprintf(&buf, "# Submittal: %s\n\n", strings.TrimSpace(s.ListName))
	fmt.Fprintf(&buf, "%d rows: %d normal, %d duplicate, %d invalid\n", sum.Total, sum.Normal, sum.Duplicate, sum.Invalid)
	for _, sec := range s.Sections {
		fmt.Fprintf(&buf, "\n## %s\n\n", sec.Name)
		if len(sec.Rows) == 0 {
			buf.WriteString("_No items._\n")
			continue
		}
		buf.WriteString("| Line | SKU | Description | Status |\n")
		buf.WriteString("| ---: | --- | --- | --- |\n")
		for _, r := range sec.Rows {
			sku := cell(r.SKU)
			if r.IsChild {
				sku = childIndent + sku
			}
			status := string(r.Status)
			if r.Status != submittal.StatusNormal {
				status = "**" + status + "**"
			}
			fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n", cell(r.Line), sku, cell(r.Content), status)
		}
	}
	return buf.String()
}

// cell makes s safe inside a one-line table cell.
func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// RenderProjectIndexMarkdown links every list of the project.
func RenderProjectIndexMarkdown(db *store.DB, projectID string) (string, error) {
	p, ok := db.FindProject(strings.TrimSpace(projectID))
	if !ok {
		return "", fmt.Errorf("project not found: %s", projectID)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", strings.TrimSpace(p.Name))
	fmt.Fprintf(&buf, "- ID: %s\n- Status: %s\n", p.ID, p.Status)
	lists := db.ListsForProject(p.ID)
	buf.WriteString("\n## Materials lists\n\n")
	if len(lists) == 0 {
		buf.WriteString("_None yet._\n")
		return buf.String(), nil
	}
	for _, l := range lists {
		fmt.Fprintf(&buf, "- [%s](%s.md) (%s, %d rows)\n", l.Name, l.ID, l.Status, rowCount(l))
	}
	return buf.String(), nil
}

func rowCount(l model.MaterialsList) int {
	n := 0
	for _, s := range l.Sections {
		n += len(s.Items)
	}
	return n
}
