package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"iml-cli/internal/editor"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// parsePosition reads "section:item", both zero-based.
func parsePosition(s string) (editor.Position, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return editor.Position{}, fmt.Errorf("invalid position %q (expected section:item)", s)
	}
	si, err1 := strconv.Atoi(strings.TrimSpace(a))
	ii, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err := errors.Join(err1, err2); err != nil {
		return editor.Position{}, fmt.Errorf("invalid position %q: %w", s, err)
	}
	return editor.Position{Section: si, Item: ii}, nil
}
