package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // teal: primary
	colorGreen  = lipgloss.Color("35")  // success, cached
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // suggested commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle is for view headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleSuccess marks completed or present items.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleHighlight marks ids and names the user typed or will type.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim is for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleNumber is for counts and coordinates.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSection is for panel section headings.
	StyleSection = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)

	// StyleWarning is for warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// status is a one-character marker printed before a message.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = status{iconSuccess, StyleSuccess}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

const (
	iconSuccess = "✓"
	iconArrow   = "→"
	separator   = " · "
)

func (s status) print(msg string) {
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	statusSuccess.print(fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	statusError.print(fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	statusWarning.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	statusInfo.print(fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints where an artifact or layout file was written.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+styleValue.Render(value))
}

// printCounts summarizes data presence for a record and how much of the
// layout is placed. cached reports whether the record came from the
// normalization cache.
func printCounts(withData, total, placed int, cached bool) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d/%d fields with data", withData, total))}
	if placed > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d placed", placed)))
	}
	parts = append(parts, cacheStatus(cached))
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(separator)))
}

// cacheStatus renders whether a result was served from cache.
func cacheStatus(cached bool) string {
	if cached {
		return styleCached.Render("cached")
	}
	return styleComputed.Render("fresh")
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
