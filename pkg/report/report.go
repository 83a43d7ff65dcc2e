package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/goliatone/go-textgen/pkg/engine"
)

// Reporter receives per-output notifications, the run summary, and the
// orchestrator's informational and error messages.
type Reporter interface {
	engine.Reporter
	Info(msg string)
	Error(err error)
}

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#2C4A54")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Action  lipgloss.Style
	Path    lipgloss.Style
	Success lipgloss.Style
	Idle    lipgloss.Style
	Error   lipgloss.Style
}{
	Action:  lipgloss.NewStyle().Foreground(colorMuted),
	Path:    lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Idle:    lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
}

// Message formats, shared by every reporter.
const (
	msgTemplating = "Templating %s to %s"
	msgNoAction   = "No actions performed"
	msgFullRun    = "Templated %d files."
	msgPartialRun = "Templated %d out of %d files."
)

// SummaryMessage returns the plain text line for a summary.
func SummaryMessage(summary engine.Summary) string {
	switch summary.Outcome() {
	case engine.NoAction:
		return msgNoAction
	case engine.FullRun:
		return fmt.Sprintf(msgFullRun, summary.Total)
	default:
		return fmt.Sprintf(msgPartialRun, summary.Changed, summary.Total)
	}
}

// ConsoleOption customises a Console.
type ConsoleOption func(*Console)

// WithColor forces styling on or off instead of detecting a terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.color = enabled
		c.colorSet = true
	}
}

// WithErrorWriter sets where Error writes. Defaults to the main writer.
func WithErrorWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		if w != nil {
			c.errOut = w
		}
	}
}

// Console writes one line per notification.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	color    bool
	colorSet bool
}

var _ Reporter = (*Console)(nil)

// NewConsole returns a Console writing to out. Styling is enabled only when
// out is a terminal.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	if out == nil {
		out = os.Stdout
	}
	c := &Console{out: out, errOut: out}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if !c.colorSet {
		c.color = isTerminal(out)
	}
	return c
}

// Rendered reports a written output.
func (c *Console) Rendered(template, output string) {
	if !c.color {
		c.println(c.out, fmt.Sprintf(msgTemplating, template, output))
		return
	}
	c.println(c.out, fmt.Sprintf("%s %s %s %s",
		styles.Action.Render("Templating"),
		styles.Path.Render(template),
		styles.Action.Render("to"),
		styles.Path.Render(output),
	))
}

// Summary reports the run classification.
func (c *Console) Summary(summary engine.Summary) {
	style := styles.Success
	if summary.Outcome() == engine.NoAction {
		style = styles.Idle
	}
	c.println(c.out, c.paint(style, SummaryMessage(summary)))
}

// Info writes msg as is.
func (c *Console) Info(msg string) {
	c.println(c.out, msg)
}

// Error writes err to the error writer.
func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	c.println(c.errOut, c.paint(styles.Error, "Error: ")+err.Error())
}

func (c *Console) paint(style lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return style.Render(text)
}

func (c *Console) println(w io.Writer, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, line)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
