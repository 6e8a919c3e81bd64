package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lumipallolabs/storviz/internal/core"
	"github.com/lumipallolabs/storviz/internal/logging"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
)

// scanStartMsg triggers the actual scan start (after UI has rendered)
type scanStartMsg struct{}

// scanStartedMsg carries the stream of an accepted scan, or why it was
// rejected
type scanStartedMsg struct {
	stream <-chan scanner.Message
	err    error
}

// scanMsg is one message read from the scan stream
type scanMsg struct {
	msg scanner.Message
}

// spinnerTickMsg triggers spinner animation
type spinnerTickMsg struct{}

// Spinner frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTickInterval = 80 * time.Millisecond

// Options configures the result list of the App
type Options struct {
	Top     int   // entries listed per folder
	MinSize int64 // smaller entries are not listed
}

// App is the main application model. It runs one scan through the
// service, shows live progress and then the largest entries.
type App struct {
	// Components
	header Header
	list   ListPanel
	help   help.Model
	bar    progress.Model

	// Scan
	svc       *core.Service
	ctx       context.Context
	path      string
	sessionID string
	stream    <-chan scanner.Message

	// State
	keys         KeyMap
	scan         core.ScanState
	disk         *model.DiskInfo
	result       *scanner.Terminal
	err          error
	quitting     bool
	spinnerFrame int

	// Dimensions
	width  int
	height int
}

// NewApp creates a new application instance scanning path under sessionID
func NewApp(ctx context.Context, svc *core.Service, path, sessionID string, opts Options) App {
	return App{
		header:    NewHeader(path),
		list:      NewListPanel(opts.Top, opts.MinSize),
		help:      help.New(),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		svc:       svc,
		ctx:       ctx,
		path:      path,
		sessionID: sessionID,
		keys:      DefaultKeyMap(),
		scan:      core.ScanState{Phase: core.PhaseScanning},
	}
}

// Result returns the terminal message once the scan has finished
func (a App) Result() *scanner.Terminal {
	return a.result
}

// Err returns the error that prevented the scan from starting
func (a App) Err() error {
	return a.err
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	// Set terminal title
	titleCmd := tea.SetWindowTitle("STORVIZ")

	// We send scanStartMsg first to allow the UI to render the scanning state
	return tea.Batch(titleCmd, func() tea.Msg {
		return scanStartMsg{}
	})
}

// startScan starts the scan and returns its stream
func (a App) startScan() tea.Cmd {
	return func() tea.Msg {
		logging.Debug.Debug().Str("path", a.path).Msg("ui starting scan")
		ch, err := a.svc.ScanDirectoryStreaming(a.ctx, a.path, a.sessionID)
		return scanStartedMsg{stream: ch, err: err}
	}
}

// waitForMessage reads the next message from the scan stream
func waitForMessage(ch <-chan scanner.Message) tea.Cmd {
	return func() tea.Msg {
		m, ok := <-ch
		if !ok {
			return nil
		}
		return scanMsg{msg: m}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerTickInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case scanStartMsg:
		a.scan.StartTime = time.Now()
		return a, tea.Batch(a.startScan(), spinnerTick())

	case scanStartedMsg:
		if msg.err != nil {
			a.err = msg.err
			a.scan.Phase = core.PhaseIdle
			return a, tea.Quit
		}
		a.stream = msg.stream
		return a, waitForMessage(a.stream)

	case scanMsg:
		return a.handleScanMessage(msg.msg)

	case spinnerTickMsg:
		// Keep ticking while scanning to force UI redraws
		if a.scan.IsScanning() {
			a.spinnerFrame = (a.spinnerFrame + 1) % len(spinnerFrames)
			return a, spinnerTick()
		}
		return a, nil
	}

	return a, nil
}

func (a App) handleScanMessage(msg scanner.Message) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case scanner.Batch:
		a.scan.FilesScanned = m.FilesScanned
		a.scan.BytesFound = m.ScannedSize
		a.scan.CurrentPath = m.CurrentPath
		if m.DiskInfo != nil {
			a.disk = m.DiskInfo
			a.header.SetDisk(m.DiskInfo)
		}
		return a, waitForMessage(a.stream)

	case scanner.Terminal:
		a.result = &m
		a.scan.FilesScanned = m.FilesScanned
		a.scan.BytesFound = m.ScannedSize
		a.scan.CurrentPath = ""
		if m.Cancelled {
			a.scan.Phase = core.PhaseCancelled
		} else {
			a.scan.Phase = core.PhaseComplete
		}
		if m.DiskInfo != nil {
			a.disk = m.DiskInfo
			a.header.SetDisk(m.DiskInfo)
		}
		a.list.SetRoot(m.Root)
		a.updateLayout()

		logging.Debug.Debug().Bool("cancelled", m.Cancelled).Msg("ui received terminal")

		if a.quitting {
			return a, tea.Quit
		}
		// Drain the closed stream
		return a, waitForMessage(a.stream)
	}
	return a, nil
}

// handleKey handles keyboard input
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.scan.IsScanning() && a.stream != nil {
			// Quit once the walk has unwound
			a.quitting = true
			a.cancelScan()
			return a, nil
		}
		return a, tea.Quit

	case key.Matches(msg, a.keys.Cancel):
		if a.scan.IsScanning() {
			a.cancelScan()
		}
		return a, nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.updateLayout()
		return a, nil

	case key.Matches(msg, a.keys.Up):
		a.list.MoveUp()
		return a, nil

	case key.Matches(msg, a.keys.Down):
		a.list.MoveDown()
		return a, nil

	case key.Matches(msg, a.keys.Enter):
		a.list.Enter()
		return a, nil

	case key.Matches(msg, a.keys.Back):
		a.list.Back()
		return a, nil
	}

	return a, nil
}

func (a App) cancelScan() {
	if err := a.svc.CancelScan(a.sessionID); err != nil {
		logging.Debug.Debug().Err(err).Msg("ui cancel")
	}
}

// updateLayout recalculates component sizes
func (a *App) updateLayout() {
	a.header.SetWidth(a.width)
	a.help.Width = a.width
	a.bar.Width = max(10, min(60, a.width-4))

	// header, status line, progress line, help
	used := 4
	if a.help.ShowAll {
		used += 3
	}
	a.list.SetSize(a.width, max(3, a.height-used))
}

// Estimate returns the fraction of used volume space covered so far. It
// is only known for root-level scans, which carry disk figures.
func Estimate(scanned int64, disk *model.DiskInfo) (float64, bool) {
	if disk == nil || disk.UsedSpace <= 0 {
		return 0, false
	}
	f := float64(scanned) / float64(disk.UsedSpace)
	return min(f, 1), true
}

// View implements tea.Model
func (a App) View() string {
	var b strings.Builder

	b.WriteString(a.header.View())
	b.WriteString("\n")

	switch {
	case a.err != nil:
		b.WriteString(ErrorStyle.Render("Error: " + a.err.Error()))
		b.WriteString("\n")

	case a.scan.IsScanning():
		b.WriteString(a.progressView())

	default:
		b.WriteString(a.statusLine())
		b.WriteString("\n")
		b.WriteString(a.list.View())
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(a.help.View(a.keys)))
	return b.String()
}

func (a App) progressView() string {
	spinner := SpinnerStyle.Render(spinnerFrames[a.spinnerFrame])
	label := a.scan.Phase.String()
	if a.quitting {
		label = "Stopping"
	}

	counts := fmt.Sprintf("%s entries, %s", humanize.Comma(a.scan.FilesScanned), FormatSize(a.scan.BytesFound))
	status := fmt.Sprintf("%s %s  %s  %s", spinner, label, StatsStyle.Render(counts), MutedStyle.Render(a.scan.Elapsed().String()))

	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n")

	if frac, ok := Estimate(a.scan.BytesFound, a.disk); ok {
		b.WriteString(a.bar.ViewAs(frac))
		b.WriteString(fmt.Sprintf(" %3.0f%%", frac*100))
		b.WriteString("\n")
	}

	current := a.scan.CurrentPath
	if a.width > 4 && lipgloss.Width(current) > a.width-2 {
		runes := []rune(current)
		keep := max(0, a.width-3)
		if keep < len(runes) {
			current = "…" + string(runes[len(runes)-keep:])
		}
	}
	b.WriteString(MutedStyle.Render(current))
	b.WriteString("\n")

	return b.String()
}

func (a App) statusLine() string {
	if a.result == nil {
		return ""
	}

	files, dirs := int64(0), int64(0)
	if a.result.Root != nil {
		files, dirs = a.result.Root.Count()
	}

	var state string
	if a.result.Cancelled {
		state = CancelledStyle.Render("Cancelled")
	} else {
		state = DoneStyle.Render("Complete")
	}

	line := fmt.Sprintf("%s  %s files, %s folders, %s in %s",
		state,
		humanize.Comma(files),
		humanize.Comma(dirs),
		FormatSize(a.result.ScannedSize),
		a.result.Elapsed.Truncate(time.Millisecond),
	)
	if a.result.Errors > 0 {
		line += MutedStyle.Render(fmt.Sprintf("  (%d unreadable)", a.result.Errors))
	}
	return line
}
