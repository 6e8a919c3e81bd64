package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lumipallolabs/storviz/internal/core"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
)

func testTree() *model.Node {
	big := &model.Node{Name: "big", Path: "/r/big", IsDir: true, Size: 600, Children: []*model.Node{
		{Name: "inner.bin", Path: "/r/big/inner.bin", Size: 500},
		{Name: "small.bin", Path: "/r/big/small.bin", Size: 100},
	}}
	return &model.Node{Name: "r", Path: "/r", IsDir: true, Size: 1000, Children: []*model.Node{
		{Name: "a.txt", Path: "/r/a.txt", Size: 50},
		big,
		{Name: "mid.bin", Path: "/r/mid.bin", Size: 350},
	}}
}

func newTestApp() App {
	a := NewApp(context.Background(), nil, "/r", "test", Options{Top: 10})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m.(App)
}

func TestEstimate(t *testing.T) {
	if _, ok := Estimate(10, nil); ok {
		t.Error("expected no estimate without disk info")
	}
	if _, ok := Estimate(10, &model.DiskInfo{TotalSpace: 100}); ok {
		t.Error("expected no estimate with zero used space")
	}

	f, ok := Estimate(50, &model.DiskInfo{TotalSpace: 400, UsedSpace: 100})
	if !ok || f != 0.5 {
		t.Errorf("Estimate = %v, %v, want 0.5, true", f, ok)
	}

	f, _ = Estimate(150, &model.DiskInfo{TotalSpace: 400, UsedSpace: 100})
	if f != 1 {
		t.Errorf("Estimate should clamp to 1, got %v", f)
	}
}

func TestAppBatchUpdatesProgress(t *testing.T) {
	a := newTestApp()
	disk := &model.DiskInfo{TotalSpace: 4000, AvailableSpace: 1000, UsedSpace: 2000}

	m, cmd := a.Update(scanMsg{msg: scanner.Batch{
		Nodes:    []*model.Node{{Name: "x", Size: 10}},
		Progress: scanner.Progress{CurrentPath: "/r/x", FilesScanned: 1234, ScannedSize: 10},
		DiskInfo: disk,
	}})
	a = m.(App)

	if cmd == nil {
		t.Error("expected command to read the next message")
	}
	if a.scan.FilesScanned != 1234 {
		t.Errorf("FilesScanned = %d, want 1234", a.scan.FilesScanned)
	}

	view := a.View()
	for _, want := range []string{"Scanning files", "1,234 entries", "/r/x", "Used:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestAppTerminalShowsLargest(t *testing.T) {
	a := newTestApp()

	m, _ := a.Update(scanMsg{msg: scanner.Terminal{
		Root:     testTree(),
		Progress: scanner.Progress{FilesScanned: 6, ScannedSize: 1000},
		Elapsed:  2 * time.Second,
	}})
	a = m.(App)

	if a.Result() == nil {
		t.Fatal("expected result")
	}
	if a.scan.Phase != core.PhaseComplete {
		t.Errorf("phase = %v, want complete", a.scan.Phase)
	}

	items := a.list.Items()
	if len(items) != 3 || items[0].Name != "big" || items[1].Name != "mid.bin" || items[2].Name != "a.txt" {
		t.Errorf("unexpected order: %v", names(items))
	}

	view := a.View()
	if !strings.Contains(view, "Complete") || !strings.Contains(view, "big/") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestAppCancelledTerminal(t *testing.T) {
	a := newTestApp()

	m, _ := a.Update(scanMsg{msg: scanner.Terminal{Root: testTree(), Cancelled: true}})
	a = m.(App)

	if a.scan.Phase != core.PhaseCancelled {
		t.Errorf("phase = %v, want cancelled", a.scan.Phase)
	}
	if !strings.Contains(a.View(), "Cancelled") {
		t.Error("expected cancelled status")
	}
}

func TestAppStartError(t *testing.T) {
	a := newTestApp()

	m, cmd := a.Update(scanStartedMsg{err: errors.New("scan root not found")})
	a = m.(App)

	if a.Err() == nil {
		t.Fatal("expected error")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !strings.Contains(a.View(), "scan root not found") {
		t.Error("expected error in view")
	}
}

func TestAppQuitAfterScan(t *testing.T) {
	a := newTestApp()
	m, _ := a.Update(scanMsg{msg: scanner.Terminal{Root: testTree()}})
	a = m.(App)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestListPanelNavigation(t *testing.T) {
	l := NewListPanel(10, 0)
	l.SetSize(80, 20)
	l.SetRoot(testTree())

	if l.Selected().Name != "big" {
		t.Fatalf("selected = %s, want big", l.Selected().Name)
	}

	l.Enter()
	if l.Dir().Name != "big" {
		t.Fatalf("dir = %s, want big", l.Dir().Name)
	}
	if got := names(l.Items()); strings.Join(got, ",") != "inner.bin,small.bin" {
		t.Errorf("items = %v", got)
	}

	// Files cannot be opened
	l.Enter()
	if l.Dir().Name != "big" {
		t.Errorf("dir = %s after entering a file", l.Dir().Name)
	}

	l.Back()
	if l.Dir().Name != "r" || l.Selected().Name != "big" {
		t.Errorf("after back: dir = %s, selected = %s", l.Dir().Name, l.Selected().Name)
	}

	l.MoveDown()
	l.MoveDown()
	l.MoveDown()
	if l.Selected().Name != "a.txt" {
		t.Errorf("selected = %s, want a.txt", l.Selected().Name)
	}
	l.MoveUp()
	if l.Selected().Name != "mid.bin" {
		t.Errorf("selected = %s, want mid.bin", l.Selected().Name)
	}
}

func TestListPanelLimits(t *testing.T) {
	l := NewListPanel(2, 100)
	l.SetRoot(testTree())

	got := names(l.Items())
	if strings.Join(got, ",") != "big,mid.bin" {
		t.Errorf("items = %v, want [big mid.bin]", got)
	}

	l = NewListPanel(10, 400)
	l.SetRoot(testTree())
	if got := names(l.Items()); strings.Join(got, ",") != "big" {
		t.Errorf("items = %v, want [big]", got)
	}
}

func TestHeaderShowsDiskUsage(t *testing.T) {
	h := NewHeader("/")
	h.SetWidth(120)
	if strings.Contains(h.View(), "Used:") {
		t.Error("no usage expected without disk info")
	}

	h.SetDisk(&model.DiskInfo{TotalSpace: 1 << 30, UsedSpace: 1 << 29})
	view := h.View()
	if !strings.Contains(view, "Used:") || !strings.Contains(view, "50%") {
		t.Errorf("unexpected header: %s", view)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{-1, "0 B"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func names(nodes []*model.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
