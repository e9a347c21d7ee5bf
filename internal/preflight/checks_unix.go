//go:build unix

package preflight

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Passed: false, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Passed: false, Detail: err.Error()}
	}
	if !info.IsDir() {
		return Result{Name: name, Passed: false, Detail: fmt.Sprintf("%s is not a directory", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Passed: false, Detail: fmt.Sprintf("%s not accessible: %v", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckFreeSpace verifies the volume holding path has at least minGiB
// of available space.
func CheckFreeSpace(name, path string, minGiB int) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Passed: false, Detail: err.Error()}
	}
	required := uint64(minGiB) * humanize.GiByte
	if free < required {
		return Result{
			Name:   name,
			Passed: false,
			Detail: fmt.Sprintf("%s free, need %s", humanize.IBytes(free), humanize.IBytes(required)),
		}
	}
	return Result{Name: name, Passed: true, Detail: humanize.IBytes(free) + " free"}
}

// FreeBytes returns the available bytes on the volume holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
