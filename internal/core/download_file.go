package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileDownloader saves exports into a directory on disk.
// Content goes to a hidden temp file first; Trigger renames it into place, so
// a failed export never leaves a partial file under the final name.
type FileDownloader struct {
	Dir string
}

// Acquire creates the temp file for name.
func (f FileDownloader) Acquire(name, _ string, _ int) (Download, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid export file name %q", name)
	}
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &fileDownload{file: tmp, final: filepath.Join(dir, name)}, nil
}

type fileDownload struct {
	file      *os.File
	final     string
	closed    bool
	committed bool
}

func (d *fileDownload) Write(p []byte) (int, error) {
	return d.file.Write(p)
}

// Trigger flushes the temp file and moves it to its final name.
func (d *fileDownload) Trigger() error {
	if err := d.close(); err != nil {
		return err
	}
	if err := os.Rename(d.file.Name(), d.final); err != nil {
		return err
	}
	d.committed = true
	return nil
}

// Release closes the temp file and removes it unless it was committed.
func (d *fileDownload) Release() error {
	closeErr := d.close()
	if d.committed {
		return closeErr
	}
	rmErr := os.Remove(d.file.Name())
	if errors.Is(rmErr, os.ErrNotExist) {
		rmErr = nil
	}
	return errors.Join(closeErr, rmErr)
}

func (d *fileDownload) close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.file.Sync(); err != nil {
		d.file.Close()
		return err
	}
	return d.file.Close()
}
