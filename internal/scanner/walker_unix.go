//go:build !windows

package scanner

import (
	"io/fs"
	"syscall"
)

// deviceID returns the device a file lives on, or 0 when unknown
func deviceID(info fs.FileInfo) uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(stat.Dev)
}
