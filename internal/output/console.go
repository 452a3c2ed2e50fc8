package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Console prints CLI status lines. Styling is applied only when the
// destination is a terminal.
type Console struct {
	w      io.Writer
	styled bool
}

// NewConsole returns a console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, styled: IsTerminal(w)}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the underlying destination.
func (c *Console) Writer() io.Writer { return c.w }

func (c *Console) render(style lipgloss.Style, msg string) {
	if c.styled {
		msg = style.Render(msg)
	}
	fmt.Fprintln(c.w, msg)
}

// Success prints msg in green with a check mark.
func (c *Console) Success(msg string) { c.render(successStyle, "✅ "+msg) }

// Error prints msg in bold red with a cross.
func (c *Console) Error(msg string) { c.render(errorStyle, "❌ "+msg) }

// Warn prints msg in bold yellow with a warning sign.
func (c *Console) Warn(msg string) { c.render(warnStyle, "⚠️  "+msg) }

// Info prints msg in cyan with an info sign.
func (c *Console) Info(msg string) { c.render(infoStyle, "ℹ️  "+msg) }

// Heading prints msg in bold.
func (c *Console) Heading(msg string) { c.render(headingStyle, msg) }

// Step prints an indented step in gray.
func (c *Console) Step(msg string) { c.render(stepStyle, "   "+msg) }

// Print prints msg unstyled.
func (c *Console) Print(msg string) { fmt.Fprintln(c.w, msg) }

// Printf prints a formatted, unstyled message without adding a newline.
func (c *Console) Printf(format string, args ...any) { fmt.Fprintf(c.w, format, args...) }
