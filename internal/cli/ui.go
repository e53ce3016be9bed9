package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// uiOut receives status lines. Tests swap it for a buffer.
var uiOut io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorMuted  = lipgloss.Color("240")
	colorLabel  = lipgloss.Color("245")
	colorValue  = lipgloss.Color("255")
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	styleValue   = lipgloss.NewStyle().Foreground(colorValue)
	styleAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarn)
	styleFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleInfo    = lipgloss.NewStyle().Foreground(colorLabel)
	styleLabel   = styleInfo.Width(14)
	styleCommand = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// status prints "<icon> <message>".
func status(icon lipgloss.Style, glyph, format string, args ...any) {
	fmt.Fprintln(uiOut, icon.Render(glyph)+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(styleOK, "✓", format, args...) }
func printError(format string, args ...any)   { status(styleFail, "✗", format, args...) }
func printInfo(format string, args ...any)    { status(styleInfo, "›", format, args...) }

func printWarning(format string, args ...any) {
	status(styleWarn, "!", "%s", styleWarn.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a file that was written.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+styleDim.Render("→")+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleLabel.Render(key)+" "+styleValue.Render(value))
}

// printStats summarizes a built topogram, e.g.
// "12 nodes · 15 edges · 1 unknown · cached".
func printStats(nodes, edges, unknown int, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", nodes), fmt.Sprintf("%d edges", edges)}
	if unknown > 0 {
		parts = append(parts, fmt.Sprintf("%d unknown", unknown))
	}
	for i, p := range parts {
		parts[i] = styleDim.Render(p)
	}
	if cached {
		parts = append(parts, styleOK.Render("cached"))
	} else {
		parts = append(parts, styleAccent.Render("fresh"))
	}
	fmt.Fprintln(uiOut, "  "+strings.Join(parts, styleDim.Render(" · ")))
}

func printDryRun() {
	fmt.Fprintln(uiOut, styleWarn.Render("dry run")+styleDim.Render(": nothing was written"))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, styleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
