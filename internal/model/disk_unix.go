//go:build linux || darwin || freebsd

package model

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// getDiskSpace returns disk space information for a given path using statfs
func getDiskSpace(path string) (DiskInfo, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskInfo{}, err
	}

	bsize := int64(stat.Bsize)
	total := int64(stat.Blocks) * bsize
	free := int64(stat.Bfree) * bsize
	avail := int64(stat.Bavail) * bsize

	return DiskInfo{
		TotalSpace:     total,
		AvailableSpace: avail,
		UsedSpace:      total - free,
	}, nil
}

// isVolumeRoot reports whether path is "/" or a mount point: a directory on
// a different device than its parent
func isVolumeRoot(path string) bool {
	parent := filepath.Dir(path)
	if parent == path {
		return true
	}

	var st, pst unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	if err := unix.Stat(parent, &pst); err != nil {
		return false
	}

	// Same inode as the parent only happens at the top of a chroot
	return st.Dev != pst.Dev || st.Ino == pst.Ino
}
