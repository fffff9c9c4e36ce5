package datastore

import (
	"bufio"
	"os"
	"path/filepath"
)

// writeAtomic writes lines to a temp file next to dest and renames it over
// dest. On any failure the temp file is removed and dest is untouched.
func writeAtomic(dest string, lines []string, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return cleanup(err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return cleanup(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Best effort: some
// platforms cannot fsync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
