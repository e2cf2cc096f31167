//go:build !windows

package pathutil

import "golang.org/x/sys/unix"

// AvailableBytes returns the free space, in bytes, on the filesystem that
// backs path.
func AvailableBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
