package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "saved to %s", "backup.zip")
	Warn(&buf, "ambiguous name %q", "Revenue")
	Fail(&buf, "login failed")
	Info(&buf, "logging in")

	out := buf.String()
	assert.Contains(t, out, "✓ saved to backup.zip")
	assert.Contains(t, out, `⚠ ambiguous name "Revenue"`)
	assert.Contains(t, out, "✗ login failed")
	assert.Contains(t, out, "→ logging in")
}

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:      "connection failed",
		Problem:      "could not reach http://localhost:3000",
		Suggestions:  []string{"Check that the instance is running"},
		HelpCommands: []string{"Get help: metasync --help"},
	})

	assert.Contains(t, out, "✗ CONNECTION FAILED: could not reach http://localhost:3000")
	assert.Contains(t, out, "• Check that the instance is running")
	assert.Contains(t, out, "→ Get help: metasync --help")
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	Tree(&buf, "Dashboards", []string{"Ops (4 cards)", "Revenue (2 cards)"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Dashboards", lines[0])
	assert.Equal(t, "├── Ops (4 cards)", lines[1])
	assert.Equal(t, "└── Revenue (2 cards)", lines[2])
}

func TestTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	Tree(&buf, "Users", nil)
	assert.Empty(t, buf.String())
}

func TestKeyValue(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValue(&buf)
	kv.AddRow("Version", "v0.50.1")
	kv.AddRow("Cards", "12")
	kv.Render()

	out := buf.String()
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "v0.50.1")
	assert.Contains(t, out, "Cards:")
}
