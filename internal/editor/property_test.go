package editor

import (
	"fmt"
	"strconv"
	"testing"

	"iml-cli/internal/model"

	"pgregory.net/rapid"
)

// genSection builds a well-formed section: it never starts with a child.
func genSection(t *rapid.T, label string) []model.Item {
	n := rapid.IntRange(0, 8).Draw(t, label+"-len")
	items := make([]model.Item, 0, n)
	for i := 0; i < n; i++ {
		child := i > 0 && rapid.Bool().Draw(t, fmt.Sprintf("%s-child-%d", label, i))
		items = append(items, model.Item{SKU: fmt.Sprintf("%s-%d", label, i), IsChild: child})
	}
	Renumber(items)
	return items
}

func genList(t *rapid.T) model.MaterialsList {
	return listOf(genSection(t, "a"), genSection(t, "b"))
}

func requireLineNumbers(t *rapid.T, l model.MaterialsList) {
	for si, s := range l.Sections {
		for i, it := range s.Items {
			if it.Line != strconv.Itoa(i+1) {
				t.Fatalf("section %d row %d: line %q, want %d", si, i, it.Line, i+1)
			}
		}
	}
}

func requireNoLeadingChild(t *rapid.T, l model.MaterialsList) {
	for si, s := range l.Sections {
		if len(s.Items) > 0 && s.Items[0].IsChild {
			t.Fatalf("section %d starts with an orphaned child", si)
		}
	}
}

func sectionLen(l model.MaterialsList, si int) int { return len(l.Sections[si].Items) }

// Any sequence of structural edits keeps line numbers dense and, with a
// delete policy that does not orphan, never leaves a child without a parent.
func TestProperty_StructuralEditsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		policy := rapid.SampledFrom([]DeletePolicy{DeleteCascade, DeletePromote}).Draw(t, "policy")
		e := New(genList(t), WithEditMode(true), WithDeletePolicy(policy))

		steps := rapid.IntRange(1, 25).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			l := e.List()
			si := rapid.IntRange(0, 1).Draw(t, "section")
			n := sectionLen(l, si)
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				e.AddParent(si)
			case 1:
				e.AddChild(si, rapid.IntRange(0, n).Draw(t, "parent"))
			case 2:
				e.DeleteItem(si, rapid.IntRange(0, n).Draw(t, "item"))
			case 3:
				ti := rapid.IntRange(0, 1).Draw(t, "target-section")
				e.BeginMove(si, rapid.IntRange(0, n).Draw(t, "src"))
				e.UpdateMoveTarget(ti, rapid.IntRange(0, sectionLen(l, ti)).Draw(t, "dst"))
				e.CommitMove()
			}
			after := e.List()
			requireLineNumbers(t, after)
			requireNoLeadingChild(t, after)
		}
	})
}

// A committed parent move keeps the parent's original child run directly
// after it, in order.
func TestProperty_ParentMoveCarriesChildren(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(genList(t), WithEditMode(true))
		l := e.List()
		si := rapid.IntRange(0, 1).Draw(t, "section")
		items := l.Sections[si].Items
		if len(items) == 0 {
			t.Skip("empty section")
		}
		src := rapid.IntRange(0, len(items)-1).Draw(t, "src")
		if items[src].IsChild {
			t.Skip("child source")
		}
		start, end := ChildRange(items, src)
		want := append([]string{items[src].SKU}, skus(items[start:end])...)

		ti := rapid.IntRange(0, 1).Draw(t, "target-section")
		dst := rapid.IntRange(0, sectionLen(l, ti)).Draw(t, "dst")
		e.BeginMove(si, src)
		e.UpdateMoveTarget(ti, dst)
		e.CommitMove()

		after := e.List()
		var found bool
		for _, s := range after.Sections {
			for i, it := range s.Items {
				if it.SKU != want[0] {
					continue
				}
				found = true
				got := skus(s.Items[i:min(i+len(want), len(s.Items))])
				if fmt.Sprint(got) != fmt.Sprint(want) {
					t.Fatalf("block split: got %v want %v", got, want)
				}
				if i+len(want) < len(s.Items) && s.Items[i+len(want)].IsChild {
					// The block may not have absorbed another parent's child.
					t.Fatalf("block absorbed a foreign child at %d", i+len(want))
				}
			}
		}
		if !found {
			t.Fatalf("moved parent %s disappeared", want[0])
		}
	})
}

// Child moves never leave their parent's range; anything else is dropped
// and leaves the list unchanged.
func TestProperty_IllegalChildMoveLeavesListUnchanged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(genList(t), WithEditMode(true))
		before := e.List()
		si := rapid.IntRange(0, 1).Draw(t, "section")
		items := before.Sections[si].Items
		if len(items) == 0 {
			t.Skip("empty section")
		}
		src := rapid.IntRange(0, len(items)-1).Draw(t, "src")
		if !items[src].IsChild {
			t.Skip("parent source")
		}
		parent, _ := ParentIndex(items, src)
		start, end := ChildRange(items, parent)

		ti := rapid.IntRange(0, 1).Draw(t, "target-section")
		dst := rapid.IntRange(0, sectionLen(before, ti)).Draw(t, "dst")
		legal := ti == si && (dst == parent || (dst >= start && dst < end))
		if legal {
			t.Skip("legal target")
		}

		e.BeginMove(si, src)
		if e.UpdateMoveTarget(ti, dst) {
			t.Fatalf("illegal target (%d,%d) accepted", ti, dst)
		}
		e.CommitMove()
		if fmt.Sprint(e.List()) != fmt.Sprint(before) {
			t.Fatalf("list changed after rejected move")
		}
	})
}
