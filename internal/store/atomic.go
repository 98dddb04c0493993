package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// stagedFile is a fully written and synced temporary file waiting to be
// renamed over its target.
type stagedFile struct {
	tmpPath string
	target  string
}

// stageFile writes data next to target so the final rename stays on one
// filesystem.
func stageFile(target string, data []byte) (*stagedFile, error) {
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStagingFailed, err)
	}
	staged := &stagedFile{tmpPath: tmp.Name(), target: target}

	if err := writeAndSync(tmp, data); err != nil {
		tmp.Close()
		staged.abort()
		return nil, fmt.Errorf("%w: %w", ErrStagingFailed, err)
	}
	if err := tmp.Close(); err != nil {
		staged.abort()
		return nil, fmt.Errorf("%w: %w", ErrStagingFailed, err)
	}
	return staged, nil
}

func writeAndSync(f *os.File, data []byte) error {
	if err := f.Chmod(fileMode); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// errDirSync reports that the rename succeeded but the directory entry
// could not be flushed. The new file is already visible at that point.
var errDirSync = errors.New("sync vault directory")

// commit atomically replaces the target and flushes the directory entry.
func (s *stagedFile) commit() error {
	if err := os.Rename(s.tmpPath, s.target); err != nil {
		s.abort()
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	if err := syncDir(filepath.Dir(s.target)); err != nil {
		return fmt.Errorf("%w: %w", errDirSync, err)
	}
	return nil
}

func (s *stagedFile) abort() {
	_ = os.Remove(s.tmpPath)
}
