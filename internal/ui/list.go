package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumipallolabs/storviz/internal/model"
)

const listSizeBarWidth = 10 // Width of size proportion bar [██████░░░░]

// ListPanel shows the largest entries of one folder of a finished scan and
// lets the user step into subfolders
type ListPanel struct {
	root    *model.Node
	dir     *model.Node
	parents []*model.Node
	items   []*model.Node
	top     int
	minSize int64
	cursor  int
	offset  int // scroll offset
	width   int
	height  int
}

// NewListPanel creates a list showing at most top entries of at least
// minSize bytes
func NewListPanel(top int, minSize int64) ListPanel {
	if top < 1 {
		top = 10
	}
	return ListPanel{top: top, minSize: minSize}
}

// SetRoot sets the scanned tree and shows its top level
func (l *ListPanel) SetRoot(root *model.Node) {
	l.root = root
	l.parents = nil
	l.open(root)
}

// SetSize sets the panel dimensions
func (l *ListPanel) SetSize(w, h int) {
	l.width = w
	l.height = h
	l.ensureVisible()
}

// Dir returns the folder being listed
func (l ListPanel) Dir() *model.Node {
	return l.dir
}

// Items returns the listed entries, largest first
func (l ListPanel) Items() []*model.Node {
	return l.items
}

// Selected returns the entry under the cursor
func (l ListPanel) Selected() *model.Node {
	if l.cursor >= 0 && l.cursor < len(l.items) {
		return l.items[l.cursor]
	}
	return nil
}

// MoveUp moves cursor up
func (l *ListPanel) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		l.ensureVisible()
	}
}

// MoveDown moves cursor down
func (l *ListPanel) MoveDown() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
		l.ensureVisible()
	}
}

// Enter opens the selected folder
func (l *ListPanel) Enter() {
	sel := l.Selected()
	if sel == nil || !sel.IsDir || len(sel.Children) == 0 {
		return
	}
	l.parents = append(l.parents, l.dir)
	l.open(sel)
}

// Back returns to the parent folder, keeping the cursor on the folder left
func (l *ListPanel) Back() {
	if len(l.parents) == 0 {
		return
	}
	left := l.dir
	parent := l.parents[len(l.parents)-1]
	l.parents = l.parents[:len(l.parents)-1]
	l.open(parent)

	for i, n := range l.items {
		if n == left {
			l.cursor = i
			l.ensureVisible()
			break
		}
	}
}

func (l *ListPanel) open(dir *model.Node) {
	l.dir = dir
	l.cursor = 0
	l.offset = 0
	l.items = nil
	if dir == nil {
		return
	}

	for _, n := range model.Largest(dir, l.top) {
		if n.Size >= l.minSize {
			l.items = append(l.items, n)
		}
	}
}

func (l *ListPanel) ensureVisible() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	maxVisible := l.height - 2 // account for borders
	if maxVisible < 1 {
		maxVisible = 1
	}
	if l.cursor >= l.offset+maxVisible {
		l.offset = l.cursor - maxVisible + 1
	}
}

// sizeBar renders the share of the listed folder taken by n
func (l ListPanel) sizeBar(n *model.Node) string {
	var pct float64
	if l.dir != nil && l.dir.Size > 0 {
		pct = float64(n.Size) / float64(l.dir.Size)
	}

	filledFloat := pct * listSizeBarWidth
	filled := int(filledFloat)
	var bar strings.Builder
	for j := 0; j < listSizeBarWidth; j++ {
		if j < filled {
			bar.WriteRune('█')
		} else if float64(j) < filledFloat+0.5 && filled < listSizeBarWidth {
			bar.WriteRune('▓')
		} else {
			bar.WriteRune('░')
		}
	}
	return fmt.Sprintf("[%s] %5.1f%%", bar.String(), pct*100)
}

func (l ListPanel) buildLine(n *model.Node) string {
	name := n.Name
	if n.IsDir {
		name += "/"
	}
	return fmt.Sprintf("%s %9s  %s", l.sizeBar(n), FormatSize(n.Size), name)
}

// View renders the list
func (l ListPanel) View() string {
	style := ListPanelStyle
	if l.width > 0 {
		style = style.Width(l.width)
	}

	if l.dir == nil {
		return style.Render("No data")
	}

	title := PathStyle.Render(l.dir.Path) + MutedStyle.Render("  "+FormatSize(l.dir.Size))
	lines := []string{title}

	if len(l.items) == 0 {
		lines = append(lines, MutedStyle.Render("(nothing above the size threshold)"))
	}

	maxVisible := l.height - 3 // borders and title
	if maxVisible < 1 {
		maxVisible = len(l.items)
	}

	maxW := l.width - 2
	for i := l.offset; i < len(l.items) && i-l.offset < maxVisible; i++ {
		n := l.items[i]
		line := l.buildLine(n)

		var itemStyle lipgloss.Style
		switch {
		case i == l.cursor:
			itemStyle = ListItemSelected
		case n.IsDir:
			itemStyle = lipgloss.NewStyle().Foreground(ColorDir)
		default:
			itemStyle = lipgloss.NewStyle().Foreground(ColorFile)
		}
		if maxW > 0 {
			itemStyle = itemStyle.MaxWidth(maxW)
		}
		lines = append(lines, itemStyle.Render(line))
	}

	return style.Render(strings.Join(lines, "\n"))
}
