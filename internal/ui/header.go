package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/storviz/internal/model"
)

const headerProgressBarWidth = 20 // Width of disk usage progress bar

// Header displays the scan root and volume usage
type Header struct {
	path  string
	disk  *model.DiskInfo
	width int
}

// NewHeader creates a new header component
func NewHeader(path string) Header {
	return Header{path: path}
}

// SetDisk sets the volume figures shown on the right
func (h *Header) SetDisk(disk *model.DiskInfo) {
	h.disk = disk
}

// SetWidth sets the header width
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header
func (h Header) View() string {
	appName := AppNameStyle.Render("STORVIZ")
	sep := lipgloss.NewStyle().Foreground(ColorBorder).Render(" │ ")
	path := PathStyle.Render(h.path)

	var stats, statsCompact string
	if h.disk != nil && h.disk.TotalSpace > 0 {
		usedPct := h.disk.UsedPercent()
		filled := int(usedPct / 100 * float64(headerProgressBarWidth))
		filled = max(0, min(filled, headerProgressBarWidth))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", headerProgressBarWidth-filled)

		stats = StatsStyle.Render(fmt.Sprintf(
			"Used: %s / %s  [%s] %.0f%%",
			FormatSize(h.disk.UsedSpace),
			FormatSize(h.disk.TotalSpace),
			bar,
			usedPct,
		))
		statsCompact = StatsStyle.Render(fmt.Sprintf(
			"Used: %s / %s",
			FormatSize(h.disk.UsedSpace),
			FormatSize(h.disk.TotalSpace),
		))
	}

	left := appName + sep + path
	leftWidth := lipgloss.Width(left)

	// For narrow terminals, progressively hide elements
	if h.width > 0 && h.width < leftWidth+lipgloss.Width(stats)+2 {
		stats = statsCompact
	}
	if h.width > 0 && h.width < leftWidth+lipgloss.Width(stats)+2 {
		stats = ""
	}

	gap := h.width - leftWidth - lipgloss.Width(stats) - 2 // padding
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + stats
	return HeaderStyle.MaxHeight(1).Render(line)
}
