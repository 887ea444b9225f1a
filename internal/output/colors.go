package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// LANE_COLORS defines the color palette for graph lanes; lane N cycles
// through the palette
var LANE_COLORS = [][]int{
	{76, 203, 241},  // Light blue
	{77, 202, 125},  // Green
	{245, 200, 0},   // Yellow
	{248, 144, 72},  // Orange
	{244, 98, 81},   // Red
	{235, 130, 188}, // Pink
	{159, 131, 228}, // Purple
	{80, 132, 243},  // Blue
}

// ColorsEnabled reports whether stdout is a terminal that can take color
func ColorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// LaneColor returns the styled text for the given lane index
func LaneColor(text string, lane int) string {
	if !ColorsEnabled() || len(LANE_COLORS) == 0 {
		return text
	}

	color := LANE_COLORS[lane%len(LANE_COLORS)]
	hexColor := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", color[0], color[1], color[2]))

	return lipgloss.NewStyle().Foreground(hexColor).Render(text)
}

// RefLabel returns a styled ref label such as (main) or (origin/main)
func RefLabel(name string, isHead bool) string {
	label := "(" + name + ")"
	if !ColorsEnabled() {
		return label
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(isHead)
	if isHead {
		style = style.Foreground(lipgloss.Color("14"))
	}
	return style.Render(label)
}

// Dim returns dimmed text for secondary details
func Dim(text string) string {
	if !ColorsEnabled() {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(text)
}
