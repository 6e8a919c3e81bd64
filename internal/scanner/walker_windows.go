//go:build windows

package scanner

import "io/fs"

// deviceID returns 0 on Windows. Drives are separate roots, and mounted
// folders show up as reparse points that the walker does not follow.
func deviceID(info fs.FileInfo) uint64 {
	return 0
}
