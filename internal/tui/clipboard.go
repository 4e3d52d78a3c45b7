package tui

import (
	"strings"

	"iml-cli/internal/model"

	"github.com/atotto/clipboard"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// rowTSV formats a row the way spreadsheets paste it.
func rowTSV(it model.Item) string {
	cols := []string{it.Line, it.SKU, it.Content, it.Quantity, string(it.UOM), it.Notes}
	for i, c := range cols {
		cols[i] = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ").Replace(c)
	}
	return strings.Join(cols, "\t")
}
