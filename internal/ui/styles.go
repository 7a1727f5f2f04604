package ui

import (
	"fmt"

	"github.com/oakhamlabs/waypost/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorHealthy = 114 // green
	colorWarn    = 214 // orange
	colorError   = 203 // red
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorCmd, s)
}

// RenderStatus returns the status string in its severity color: green for
// healthy, orange for warn, red for error, gray for unspecified.
func RenderStatus(s model.Status) string {
	if noColor {
		return string(s)
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", statusColor(s), s)
}

// StatusGlyph returns a colored dot for the status, for compact listings.
func StatusGlyph(s model.Status) string {
	const dot = "●"
	if noColor {
		return dot
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", statusColor(s), dot)
}

func statusColor(s model.Status) int {
	switch s {
	case model.StatusHealthy:
		return colorHealthy
	case model.StatusWarn:
		return colorWarn
	case model.StatusError:
		return colorError
	}
	return colorMuted
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
