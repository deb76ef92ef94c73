package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/mdb/internal/models"
)

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer

	// mu serializes writes; upload progress arrives from the archive goroutine.
	mu             sync.Mutex
	progressActive bool
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix     = color.New(color.FgHiBlue).Sprint("i")
	successPrefix  = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix  = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix    = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix  = color.New(color.FgHiBlue).Sprint("  →")
	progressPrefix = color.New(color.FgHiCyan).Sprint("↑")
	cyan           = color.New(color.FgHiCyan).SprintFunc()
	green          = color.New(color.FgHiGreen).SprintFunc()
	yellow         = color.New(color.FgHiYellow).SprintFunc()
	red            = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// OutcomeColor returns the outcome colored by how the attempt ended.
func OutcomeColor(o models.AttemptOutcome) string {
	switch o {
	case models.AttemptSucceeded:
		return green(string(o))
	case models.AttemptConflict:
		return yellow(string(o))
	case models.AttemptFailed:
		return red(string(o))
	default:
		return string(o)
	}
}

// endProgress moves past an active progress line before other output.
// Callers hold u.mu.
func (u *UI) endProgress() {
	if u.progressActive {
		fmt.Fprintln(u.Out)
		u.progressActive = false
	}
}

func (u *UI) print(w io.Writer, prefix, format string, a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.endProgress()
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, a...))
}

func (u *UI) Info(format string, a ...any) {
	u.print(u.Out, infoPrefix, format, a...)
}

func (u *UI) Success(format string, a ...any) {
	u.print(u.Out, successPrefix, format, a...)
}

func (u *UI) Warning(format string, a ...any) {
	u.print(u.ErrOut, warningPrefix, format, a...)
}

func (u *UI) Error(format string, a ...any) {
	u.print(u.ErrOut, errorPrefix, format, a...)
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		u.print(u.Out, verbosePrefix, format, a...)
	}
}

func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Progress rewrites the current line with the uploaded size in megabytes.
func (u *UI) Progress(mb string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.Out, "\r%s Uploaded %s MB", progressPrefix, mb)
	u.progressActive = true
}

// ProgressDone terminates the progress line, if any.
func (u *UI) ProgressDone() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.endProgress()
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
