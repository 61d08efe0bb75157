// Package atomicfile replaces files so readers never observe a partial write.
package atomicfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// tempPattern names the temporary file created next to the target.
const tempPattern = ".smallworld-*"

// WriteFile writes data to a temporary file in the target's directory and
// renames it over target. On failure the temporary file is removed and any
// existing target is left untouched.
//
// The new file gets perm; when target already exists its mode is kept.
func WriteFile(target string, data []byte, perm fs.FileMode) error {
	if info, err := os.Stat(target); err == nil {
		if !info.Mode().IsRegular() {
			return &fs.PathError{Op: "write", Path: target, Err: errors.New("not a regular file")}
		}
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
