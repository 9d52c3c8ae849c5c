package integrity

import (
	"io"
	"os"
	"path/filepath"
)

// BakPath returns the backup path for a file: the `.bak` suffix is appended
// to the base name, alongside the original.
func BakPath(path string) string {
	return filepath.Join(filepath.Dir(path), filepath.Base(path)+".bak")
}

// Backup creates a `.bak` copy if one does not already exist and returns its
// path. An existing backup is never overwritten: the first backup is the one
// source of pre-patch truth.
func Backup(path string) (string, error) {
	bak := BakPath(path)
	if _, err := os.Stat(bak); err == nil {
		return bak, nil
	}
	if err := copyFile(path, bak); err != nil {
		return "", err
	}
	return bak, nil
}

// RestoreFromBackup overwrites the file from its `.bak` copy. Returns false
// without error when no backup exists.
func RestoreFromBackup(path string) (bool, error) {
	bak := BakPath(path)
	if _, err := os.Stat(bak); err != nil {
		return false, nil
	}
	if err := copyFile(bak, path); err != nil {
		return false, err
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	perm := os.FileMode(0o644)
	if info, err := in.Stat(); err == nil {
		perm = info.Mode().Perm()
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
