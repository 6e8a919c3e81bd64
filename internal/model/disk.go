package model

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

var (
	// ErrNotFound is returned when the probed path does not exist
	ErrNotFound = errors.New("path not found")
	// ErrPermissionDenied is returned when the probed path cannot be accessed
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnsupported is returned on platforms without a space query
	ErrUnsupported = errors.New("disk probe unsupported on this platform")
)

// DiskInfo holds space figures for the volume containing a path.
//
// AvailableSpace is what the OS reports as available to an unprivileged
// caller. UsedSpace is total minus the OS free count, so it includes space
// reserved for the superuser and never depends on what a scan counted.
type DiskInfo struct {
	TotalSpace     int64 `json:"totalSpace"`
	AvailableSpace int64 `json:"availableSpace"`
	UsedSpace      int64 `json:"usedSpace"`
}

// UsedPercent returns percentage of the volume used
func (d DiskInfo) UsedPercent() float64 {
	if d.TotalSpace == 0 {
		return 0
	}
	return float64(d.UsedSpace) / float64(d.TotalSpace) * 100
}

// Probe returns space figures for the volume containing path
func Probe(path string) (DiskInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return DiskInfo{}, fmt.Errorf("probe %q: %w", path, err)
	}

	info, err := getDiskSpace(abs)
	if err != nil {
		return DiskInfo{}, classifyProbeErr(abs, err)
	}
	return info, nil
}

// IsVolumeRoot reports whether path is the root of a mounted volume,
// e.g. "/" or a mount point on Unix, or "C:\" on Windows
func IsVolumeRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return isVolumeRoot(abs)
}

func classifyProbeErr(path string, err error) error {
	switch {
	case errors.Is(err, ErrUnsupported):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("probe %q: %w: %w", path, ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("probe %q: %w: %w", path, ErrPermissionDenied, err)
	default:
		return fmt.Errorf("probe %q: %w", path, err)
	}
}
