package core

import (
	"time"
)

// ScanPhase represents the current phase of a scan session
type ScanPhase int

const (
	PhaseIdle ScanPhase = iota
	PhaseScanning
	PhaseComplete
	PhaseCancelled
)

// String returns a human-readable phase name
func (p ScanPhase) String() string {
	switch p {
	case PhaseIdle:
		return ""
	case PhaseScanning:
		return "Scanning files"
	case PhaseComplete:
		return "Complete"
	case PhaseCancelled:
		return "Cancelled"
	default:
		return ""
	}
}

// MarshalText encodes the phase by name
func (p ScanPhase) MarshalText() ([]byte, error) {
	switch p {
	case PhaseScanning:
		return []byte("scanning"), nil
	case PhaseComplete:
		return []byte("complete"), nil
	case PhaseCancelled:
		return []byte("cancelled"), nil
	default:
		return []byte("idle"), nil
	}
}

// ScanState holds the progress of one scan
type ScanState struct {
	Phase        ScanPhase `json:"phase"`
	StartTime    time.Time `json:"startTime"`
	FilesScanned int64     `json:"filesScanned"`
	BytesFound   int64     `json:"scannedSize"`
	CurrentPath  string    `json:"currentPath,omitempty"`
}

// IsScanning returns true while the walk is running
func (s ScanState) IsScanning() bool {
	return s.Phase == PhaseScanning
}

// Elapsed returns time since scan started
func (s ScanState) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime).Truncate(time.Second)
}

// SessionState is a snapshot of one in-flight session
type SessionState struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	ScanState
}
