package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/storviz/internal/scanner"
	"github.com/lumipallolabs/storviz/internal/session"
)

// makeFlatDir writes n files of size bytes into a fresh directory
func makeFlatDir(t *testing.T, n, size int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("f%04d", i))
		require.NoError(t, os.WriteFile(name, make([]byte, size), 0644))
	}
	return dir
}

// slowOptions make a stream stall on backpressure long before the walk can
// finish, so a session stays in flight until the test drains it
func slowOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.BatchSize = 1
	opts.CheckEvery = 1
	opts.Workers = 1
	opts.FlushInterval = time.Hour
	return opts
}

func newService(t *testing.T, opts scanner.Options) *Service {
	t.Helper()
	s, err := NewService(opts)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, ch <-chan scanner.Message) (batches int, term scanner.Terminal) {
	t.Helper()
	terminals := 0
	timeout := time.After(10 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				require.Equal(t, 1, terminals, "exactly one terminal")
				return batches, term
			}
			switch m := m.(type) {
			case scanner.Batch:
				require.Zero(t, terminals, "batch after terminal")
				batches++
			case scanner.Terminal:
				terminals++
				term = m
			}
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestScanDirectoryStreaming(t *testing.T) {
	dir := makeFlatDir(t, 30, 10)

	opts := scanner.DefaultOptions()
	opts.BatchSize = 4
	s := newService(t, opts)

	ch, err := s.ScanDirectoryStreaming(context.Background(), dir, "s1")
	require.NoError(t, err)

	batches, term := collect(t, ch)
	assert.Greater(t, batches, 1)
	assert.False(t, term.Cancelled)
	assert.Equal(t, int64(300), term.Root.Size)
	assert.Equal(t, int64(30), term.FilesScanned)
	assert.Nil(t, term.DiskInfo)

	assert.Empty(t, s.Sessions())
}

func TestDuplicateSessionRejected(t *testing.T) {
	dir := makeFlatDir(t, 200, 1)
	s := newService(t, slowOptions())

	first, err := s.ScanDirectoryStreaming(context.Background(), dir, "dup")
	require.NoError(t, err)

	_, err = s.ScanDirectoryStreaming(context.Background(), dir, "dup")
	assert.ErrorIs(t, err, session.ErrDuplicateInFlight)

	// The first scan is unaffected
	_, term := collect(t, first)
	assert.False(t, term.Cancelled)
	assert.Equal(t, int64(200), term.Root.Size)

	// The id is free again once the terminal was delivered
	again, err := s.ScanDirectoryStreaming(context.Background(), dir, "dup")
	require.NoError(t, err)
	collect(t, again)
}

func TestSameRootDifferentSessions(t *testing.T) {
	dir := makeFlatDir(t, 5, 2)
	s := newService(t, scanner.DefaultOptions())

	a, err := s.ScanDirectoryStreaming(context.Background(), dir, "a")
	require.NoError(t, err)
	b, err := s.ScanDirectoryStreaming(context.Background(), dir, "b")
	require.NoError(t, err)

	_, ta := collect(t, a)
	_, tb := collect(t, b)
	assert.Equal(t, ta.Root.Size, tb.Root.Size)
}

func TestCancelScan(t *testing.T) {
	dir := makeFlatDir(t, 200, 1)
	s := newService(t, slowOptions())

	ch, err := s.ScanDirectoryStreaming(context.Background(), dir, "c")
	require.NoError(t, err)

	sessions := s.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "c", sessions[0].ID)
	assert.Equal(t, dir, sessions[0].Path)

	require.NoError(t, s.CancelScan("c"))
	assert.Equal(t, PhaseCancelled, s.Sessions()[0].Phase)

	_, term := collect(t, ch)
	assert.True(t, term.Cancelled)
	assert.Less(t, term.Root.Size, int64(200))
	assert.NoError(t, term.Root.Verify())

	assert.Empty(t, s.Sessions())
	assert.ErrorIs(t, s.CancelScan("c"), session.ErrSessionNotFound)
}

func TestCancelUnknownSession(t *testing.T) {
	s := newService(t, scanner.DefaultOptions())
	assert.ErrorIs(t, s.CancelScan("nope"), session.ErrSessionNotFound)
}

func TestContextCancelStopsScan(t *testing.T) {
	dir := makeFlatDir(t, 200, 1)
	s := newService(t, slowOptions())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.ScanDirectoryStreaming(ctx, dir, "ctx")
	require.NoError(t, err)
	cancel()

	// The session may already have ended by now; the stream is what counts
	_, term := collect(t, ch)
	assert.True(t, term.Cancelled)
	require.NotNil(t, term.Root)
	assert.Less(t, term.Root.Size, int64(200))
	assert.NoError(t, term.Root.Verify())

	assert.Empty(t, s.Sessions())
	assert.ErrorIs(t, s.CancelScan("ctx"), session.ErrSessionNotFound)
}

func TestRootErrorsReleaseSession(t *testing.T) {
	s := newService(t, scanner.DefaultOptions())
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := s.ScanDirectoryStreaming(context.Background(), missing, "r")
	assert.ErrorIs(t, err, scanner.ErrPathNotFound)
	assert.Empty(t, s.Sessions())

	ch, err := s.ScanDirectoryStreaming(context.Background(), t.TempDir(), "r")
	require.NoError(t, err)
	collect(t, ch)
}

func TestEmptySessionID(t *testing.T) {
	s := newService(t, scanner.DefaultOptions())
	_, err := s.ScanDirectoryStreaming(context.Background(), t.TempDir(), "")
	assert.ErrorIs(t, err, session.ErrEmptyID)
}

func TestRootScanCarriesDiskInfo(t *testing.T) {
	dir := makeFlatDir(t, 20, 3)

	opts := scanner.DefaultOptions()
	opts.BatchSize = 3
	s := newService(t, opts)
	s.volumeRoot = func(string) bool { return true }

	ch, err := s.ScanDirectoryStreaming(context.Background(), dir, "disk")
	require.NoError(t, err)

	for m := range ch {
		switch m := m.(type) {
		case scanner.Batch:
			require.NotNil(t, m.DiskInfo)
			assert.Greater(t, m.DiskInfo.TotalSpace, int64(0))
		case scanner.Terminal:
			require.NotNil(t, m.DiskInfo)
			assert.Greater(t, m.DiskInfo.TotalSpace, int64(0))
			// Disk figures come from the OS, not from the scan
			assert.NotEqual(t, m.ScannedSize, m.DiskInfo.UsedSpace)
		}
	}
}

func TestProbeDisk(t *testing.T) {
	s := newService(t, scanner.DefaultOptions())

	info, err := s.ProbeDisk(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, info.TotalSpace, int64(0))
	assert.LessOrEqual(t, info.AvailableSpace, info.TotalSpace)
	assert.LessOrEqual(t, info.UsedSpace, info.TotalSpace)
}

func TestNewServiceRejectsBadPattern(t *testing.T) {
	opts := scanner.DefaultOptions()
	opts.Exclude = []string{"[oops"}
	_, err := NewService(opts)
	assert.Error(t, err)
}
