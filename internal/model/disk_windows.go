//go:build windows

package model

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func getDiskSpace(path string) (DiskInfo, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return DiskInfo{}, err
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return DiskInfo{}, err
	}

	return DiskInfo{
		TotalSpace:     int64(totalBytes),
		AvailableSpace: int64(freeBytesAvailable),
		UsedSpace:      int64(totalBytes - totalFreeBytes),
	}, nil
}

// isVolumeRoot reports whether path is a drive root such as C:\
func isVolumeRoot(path string) bool {
	vol := filepath.VolumeName(path)
	if vol == "" {
		return false
	}
	return filepath.Clean(path) == vol+`\`
}
