//go:build !windows

package storage

import "os"

func renameReplace(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
