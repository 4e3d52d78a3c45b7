// Package format renders command results as JSON or EDN.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// Envelope wraps every command result so scripts can rely on a "data" key.
type Envelope struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Formats lists the accepted --format values.
var Formats = []string{"json", "edn"}

func Valid(format string) bool {
	format = strings.ToLower(strings.TrimSpace(format))
	return format == "" || format == "json" || format == "edn"
}

// Write writes v in the requested format (json when empty).
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s (expected %s)", format, strings.Join(Formats, "|"))
	}
}

// WriteJSON writes strict JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
