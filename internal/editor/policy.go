package editor

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to a parent's child run when the parent
// row is deleted.
type DeletePolicy string

const (
	// DeleteKeep removes only the row; its children stay in place and attach
	// to whichever parent now precedes them (or none at section start).
	DeleteKeep DeletePolicy = "keep"
	// DeleteCascade removes the parent together with its child run.
	DeleteCascade DeletePolicy = "cascade"
	// DeletePromote turns the first child into the parent of the rest.
	DeletePromote DeletePolicy = "promote"
)

func (p DeletePolicy) valid() bool {
	switch p {
	case DeleteKeep, DeleteCascade, DeletePromote:
		return true
	}
	return false
}

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DeleteKeep, nil
	}
	p := DeletePolicy(s)
	if !p.valid() {
		return "", fmt.Errorf("invalid delete policy: %q (expected keep|cascade|promote)", s)
	}
	return p, nil
}
