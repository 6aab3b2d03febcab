package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mangaforge/pkg/errors"
	"github.com/matzehuels/mangaforge/pkg/pipeline"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders page names and screen headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim renders labels, paths and other secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleNumber renders page counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// marker is the leading symbol of a status line.
type marker struct {
	icon  string
	style lipgloss.Style
	// tint also colors the message.
	tint bool
}

var (
	markDone = marker{icon: "✓", style: lipgloss.NewStyle().Foreground(colorGreen)}
	markFail = marker{icon: "✗", style: lipgloss.NewStyle().Foreground(colorRed)}
	markWarn = marker{icon: "!", style: lipgloss.NewStyle().Foreground(colorYellow), tint: true}
	markNote = marker{icon: "›", style: lipgloss.NewStyle().Foreground(colorGray)}
)

func (m marker) line(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if m.tint {
		msg = m.style.Render(msg)
	}
	return m.style.Render(m.icon) + " " + msg
}

func printSuccess(format string, args ...any) { fmt.Println(markDone.line(format, args...)) }
func printWarning(format string, args ...any) { fmt.Println(markWarn.line(format, args...)) }
func printInfo(format string, args ...any) { fmt.Println(markNote.line(format, args...)) }

// printDetail prints an indented secondary line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path the command wrote.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + styleValue.Render(value))
}

func printNewline() { fmt.Println() }

// stat is one count of a batch summary, such as "12 bubbles".
type stat struct {
	value int
	label string
}

// printStats prints a batch summary on one line. Zero counts are left out.
// Pages served from the render cache are counted last, in green.
func printStats(stats []stat, cached int) {
	fmt.Println(statsLine(stats, cached))
}

func statsLine(stats []stat, cached int) string {
	sep := StyleDim.Render(" · ")
	var parts []string
	for _, st := range stats {
		if st.value > 0 {
			parts = append(parts, StyleDim.Render(fmt.Sprintf("%d %s", st.value, st.label)))
		}
	}
	if cached > 0 {
		parts = append(parts, markDone.style.Render(fmt.Sprintf("%d cached", cached)))
	}
	return "  " + strings.Join(parts, sep)
}

// printNextStep suggests the command for the next pipeline stage.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printFailures lists the pages a stage gave up on.
func printFailures(failed []pipeline.PageError) {
	if len(failed) == 0 {
		return
	}
	printWarning("%d pages failed", len(failed))
	for _, f := range failed {
		printDetail("%s: %s", f.Page, errors.UserMessage(f.Err))
	}
}

// ReportError writes err to w as a failed status line. Coded errors print
// their message without the code; the code follows on a detail line.
func ReportError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, markFail.line("%s", errors.UserMessage(err)))
	if code := errors.GetCode(err); code != "" {
		fmt.Fprintln(w, "  "+StyleDim.Render(string(code)))
	}
}
