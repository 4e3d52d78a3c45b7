package editor

import (
	"strconv"

	"iml-cli/internal/model"
)

// ParentIndex scans backward from i to the nearest non-child item.
// ok=false when every preceding item is a child (or i is 0).
func ParentIndex(items []model.Item, i int) (int, bool) {
	if i > len(items) {
		i = len(items)
	}
	for j := i - 1; j >= 0; j-- {
		if !items[j].IsChild {
			return j, true
		}
	}
	return -1, false
}

// ChildRange returns the half-open range [start, end) of the consecutive
// child items following parent p.
func ChildRange(items []model.Item, p int) (start, end int) {
	start = p + 1
	end = start
	for end < len(items) && items[end].IsChild {
		end++
	}
	return start, end
}

// blockEnd is the exclusive end of the block that moves with item i:
// a parent carries its child run, a child moves alone.
func blockEnd(items []model.Item, i int) int {
	if i < 0 || i >= len(items) {
		return i
	}
	if items[i].IsChild {
		return i + 1
	}
	_, end := ChildRange(items, i)
	return end
}

// groupStart is the index of the parent owning row i, or i itself for
// parents, orphans and the end-of-section slot.
func groupStart(items []model.Item, i int) int {
	if i < 0 || i >= len(items) || !items[i].IsChild {
		return i
	}
	if p, ok := ParentIndex(items, i); ok {
		return p
	}
	return i
}

func groupEnd(items []model.Item, i int) int {
	if i >= len(items) {
		return len(items)
	}
	return blockEnd(items, groupStart(items, i))
}

// Renumber rewrites every line number to its 1-based position.
func Renumber(items []model.Item) {
	for i := range items {
		items[i].Line = strconv.Itoa(i + 1)
	}
}
