//go:build windows

package main

import (
	"io/fs"
	"os"
)

// Windows has no access(2); the read-only attribute maps to a cleared 0200 bit.
func checkWriteAccess(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return fs.ErrPermission
	}
	return nil
}
