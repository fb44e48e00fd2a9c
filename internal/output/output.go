// Package output holds the terminal styling and value formatting used by the
// script host.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Fault messages use a fixed escape pair so they render the same whatever the
// terminal profile detection decides.
const (
	faultStart = "\u001b[31m"
	faultEnd   = "\u001b[0m"
)

var (
	// promptStyle for the shell prompt glyph
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	// dimStyle for muted text such as undefined results
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// numberStyle for numeric and boolean results
	numberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	// stringStyle for string results
	stringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// boxStyle for the help box with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)
)

// Fault wraps msg in the error style. The message is returned untouched when
// color is false.
func Fault(msg string, color bool) string {
	if !color {
		return msg
	}
	return faultStart + msg + faultEnd
}

// Prompt renders the shell prompt, styling the glyph and keeping the
// separating space outside the style.
func Prompt(glyph string) string {
	return promptStyle.Render(glyph) + " "
}

// Command describes a shell dot command for the help box
type Command struct {
	Name  string
	Usage string
}

// FormatHelp renders the dot command reference
func FormatHelp(w io.Writer, commands []Command) {
	width := 0
	for _, c := range commands {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		pad := strings.Repeat(" ", width-len(c.Name))
		lines = append(lines, fmt.Sprintf("%s%s  %s", c.Name, pad, dimStyle.Render(c.Usage)))
	}

	content := titleStyle.Render("Shell commands") + "\n" + strings.Join(lines, "\n")
	fmt.Fprintln(w, boxStyle.Render(content))
}
