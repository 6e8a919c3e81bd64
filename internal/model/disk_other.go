//go:build !linux && !darwin && !freebsd && !windows

package model

import "path/filepath"

func getDiskSpace(path string) (DiskInfo, error) {
	return DiskInfo{}, ErrUnsupported
}

func isVolumeRoot(path string) bool {
	return filepath.Dir(path) == path
}
