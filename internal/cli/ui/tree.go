package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Tree prints a titled list with tree-style connectors, the way inspect
// renders dashboards and databases. Nothing is printed for an empty list.
//
//	Dashboards
//	├── Ops (4 cards)
//	└── Revenue (2 cards)
func Tree(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	bold := color.New(color.Bold, color.FgCyan)
	bold.Fprintln(w, title)
	for i, item := range items {
		connector := "├── "
		if i == len(items)-1 {
			connector = "└── "
		}
		fmt.Fprintf(w, "%s%s\n", connector, item)
	}
}

// KeyValue renders aligned key-value rows, used for instance stats.
type KeyValue struct {
	writer io.Writer
	rows   [][2]string
}

// NewKeyValue creates an empty key-value block writing to w.
func NewKeyValue(w io.Writer) *KeyValue {
	return &KeyValue{writer: w}
}

// AddRow appends one key-value pair.
func (t *KeyValue) AddRow(key, value string) {
	t.rows = append(t.rows, [2]string{key, value})
}

// Render writes the block.
func (t *KeyValue) Render() {
	if len(t.rows) == 0 {
		return
	}
	width := 0
	for _, row := range t.rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	cyan := color.New(color.FgCyan)
	for _, row := range t.rows {
		cyan.Fprintf(t.writer, "%-*s", width+1, row[0]+":")
		fmt.Fprintf(t.writer, " %s\n", row[1])
	}
}
