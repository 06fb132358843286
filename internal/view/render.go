package view

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	senderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	timeStyle   = lipgloss.NewStyle().Faint(true)
	glyphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	readStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// fieldOrder keeps inline errors in form order.
var fieldOrder = map[string]int{"name": 0, "email": 1, "roomId": 2}

// Render writes v to w as terminal text.
func Render(w io.Writer, v View) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Group: " + v.Header))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(v.Status))
	if v.UserName != "" {
		b.WriteString("  " + v.UserName)
	}
	b.WriteString("\n")

	for _, l := range v.Lines {
		b.WriteString(renderLine(l))
		b.WriteString("\n")
	}

	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fieldOrder[fields[i]] < fieldOrder[fields[j]] })
	for _, f := range fields {
		b.WriteString(errorStyle.Render(v.FieldErrors[f]))
		b.WriteString("\n")
	}
	if v.Notice != "" {
		b.WriteString(errorStyle.Render("! " + v.Notice))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderLine(l Line) string {
	var b strings.Builder
	if l.Own {
		b.WriteString("  > ")
	} else {
		b.WriteString(senderStyle.Render(l.Sender))
		b.WriteString(": ")
	}
	b.WriteString(l.Text)
	b.WriteString(" ")
	b.WriteString(timeStyle.Render(l.Time))
	if l.Glyph != "" {
		style := glyphStyle
		if l.Highlight {
			style = readStyle
		}
		b.WriteString(" ")
		b.WriteString(style.Render(l.Glyph))
	}
	return b.String()
}

// Help returns the command summary shown by the terminal client.
func Help() string {
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		"/join <room> <name> <email>  join a room",
		"/leave                       leave the current room",
		"/quit                        exit",
		"anything else                send as a message",
	)
}
