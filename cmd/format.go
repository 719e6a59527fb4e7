package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorOK    = lipgloss.Color("#2CD7C7")
	colorWarn  = lipgloss.Color("#F4D03F")
	colorFail  = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("#5C7A84")
)

var styles = struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Muted   lipgloss.Style
	OK      lipgloss.Style
	Warn    lipgloss.Style
	Fail    lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorOK),
	Section: lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	OK:      lipgloss.NewStyle().Foreground(colorOK),
	Warn:    lipgloss.NewStyle().Foreground(colorWarn),
	Fail:    lipgloss.NewStyle().Foreground(colorFail).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

func verdict(ok bool) string {
	if ok {
		return styles.OK.Render("✓ PASS")
	}
	return styles.Fail.Render("✗ FAIL")
}

func healthBar(score float64) string {
	barLen := min(int(score*20), 20)
	return strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
}

func sectionRule(title string) string {
	return styles.Section.Render(title) + "\n  " + styles.Muted.Render(strings.Repeat("─", 40))
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}

// TruncateMiddle shortens a string by replacing the middle with "..." if it
// exceeds maxLen. Preserves roughly equal portions from start and end.
func TruncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	// Split available space: first half gets one more char on odd splits
	available := maxLen - 3 // account for "..."
	firstHalf := (available + 1) / 2
	lastHalf := available / 2
	return s[:firstHalf] + "..." + s[len(s)-lastHalf:]
}

// FormatDurationShort formats milliseconds into a compact human-readable string.
//
//	<1000ms  -> "0.Xs"
//	<60000ms -> "X.Xs"
//	<3600000 -> "XmYs"
//	else     -> "XhYm"
func FormatDurationShort(ms int64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("0.%ds", ms/100)
	case ms < 60000:
		return fmt.Sprintf("%d.%ds", ms/1000, (ms%1000)/100)
	case ms < 3600000:
		minutes := ms / 60000
		seconds := (ms % 60000) / 1000
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		hours := ms / 3600000
		minutes := (ms % 3600000) / 60000
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
}

// feet formats a distance in feet.
func feet(v float64) string {
	return fmt.Sprintf("%.1f ft", v)
}
