package core

import (
	"context"
	"sync"

	"github.com/lumipallolabs/storviz/internal/logging"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
	"github.com/lumipallolabs/storviz/internal/session"
)

// Service runs streaming scans keyed by caller-supplied session ids. It has
// no UI or transport dependencies.
type Service struct {
	mu     sync.RWMutex
	states map[string]*ScanState

	registry *session.Registry
	walker   *scanner.Walker

	// volumeRoot decides whether a scan gets disk figures attached
	volumeRoot func(string) bool
}

// NewService creates a scan service with the given walker options
func NewService(opts scanner.Options) (*Service, error) {
	w, err := scanner.NewWalker(opts)
	if err != nil {
		return nil, err
	}

	return &Service{
		states:     make(map[string]*ScanState),
		registry:   session.NewRegistry(),
		walker:     w,
		volumeRoot: model.IsVolumeRoot,
	}, nil
}

// ScanDirectoryStreaming starts scanning path under sessionID and returns
// the stream: zero or more Batch messages, then exactly one Terminal, then
// the channel is closed. The caller must drain the channel.
//
// A duplicate in-flight sessionID fails with session.ErrDuplicateInFlight;
// a missing or unreadable root fails with scanner.ErrPathNotFound or
// scanner.ErrPermissionDenied. In both cases no stream is produced. When
// ctx ends the scan is cancelled as if CancelScan had been called.
func (s *Service) ScanDirectoryStreaming(ctx context.Context, path, sessionID string) (<-chan scanner.Message, error) {
	sess, err := s.registry.Begin(path, sessionID)
	if err != nil {
		return nil, err
	}
	tok := sess.Token()

	in, err := s.walker.Stream(path, tok, s.diskInfo(path))
	if err != nil {
		s.registry.End(sessionID)
		return nil, err
	}

	s.mu.Lock()
	s.states[sessionID] = &ScanState{
		Phase:       PhaseScanning,
		StartTime:   sess.Started,
		CurrentPath: path,
	}
	s.mu.Unlock()

	logging.Debug.Debug().Str("session", sessionID).Str("path", path).Msg("scan started")

	stop := context.AfterFunc(ctx, tok.Cancel)
	out := make(chan scanner.Message, 16)

	go s.runScan(sessionID, in, out, stop)

	return out, nil
}

// runScan forwards the walker's stream and tracks the session's progress.
// The session is ended before the Terminal is delivered, so the id can be
// reused as soon as the consumer sees it.
func (s *Service) runScan(id string, in <-chan scanner.Message, out chan<- scanner.Message, stop func() bool) {
	defer close(out)

	for msg := range in {
		switch m := msg.(type) {
		case scanner.Batch:
			s.mu.Lock()
			if st, ok := s.states[id]; ok {
				st.FilesScanned = m.FilesScanned
				st.BytesFound = m.ScannedSize
				st.CurrentPath = m.CurrentPath
			}
			s.mu.Unlock()

		case scanner.Terminal:
			stop()
			s.mu.Lock()
			delete(s.states, id)
			s.mu.Unlock()
			s.registry.End(id)

			logging.Debug.Debug().
				Str("session", id).
				Int64("files", m.FilesScanned).
				Int64("bytes", m.ScannedSize).
				Int64("errors", m.Errors).
				Bool("cancelled", m.Cancelled).
				Dur("elapsed", m.Elapsed).
				Msg("scan finished")
		}

		out <- msg
	}
}

// CancelScan trips the cancellation token of an in-flight session. The
// stream still ends with a Terminal carrying the partial tree.
func (s *Service) CancelScan(sessionID string) error {
	if err := s.registry.Cancel(sessionID); err != nil {
		return err
	}
	logging.Debug.Debug().Str("session", sessionID).Msg("scan cancel requested")
	return nil
}

// ProbeDisk returns space figures for the volume containing path
func (s *Service) ProbeDisk(path string) (model.DiskInfo, error) {
	return model.Probe(path)
}

// Sessions returns a snapshot of the in-flight sessions, oldest first
func (s *Service) Sessions() []SessionState {
	live := s.registry.Sessions()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionState, 0, len(live))
	for _, sess := range live {
		st := SessionState{ID: sess.ID, Path: sess.Path}
		if cur, ok := s.states[sess.ID]; ok {
			st.ScanState = *cur
		} else {
			st.ScanState = ScanState{Phase: PhaseScanning, StartTime: sess.Started}
		}
		if sess.Token().Cancelled() {
			st.Phase = PhaseCancelled
		}
		out = append(out, st)
	}
	return out
}

// diskInfo probes the volume for root-level scans. A failed probe never
// fails the scan.
func (s *Service) diskInfo(path string) *model.DiskInfo {
	if !s.volumeRoot(path) {
		return nil
	}

	info, err := model.Probe(path)
	if err != nil {
		logging.Debug.Debug().Err(err).Str("path", path).Msg("disk probe failed")
		return nil
	}
	return &info
}
