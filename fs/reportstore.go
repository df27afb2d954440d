// Package fs provides file-based storage for rendered reports.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/seoaudit"
)

// Ensure ReportStore implements seoaudit.ReportStore at compile time.
var _ seoaudit.ReportStore = (*ReportStore)(nil)

// ReportStore writes reports into a directory with atomic replace
// semantics. Each report is rendered into a temporary file next to its
// destination and renamed into place once complete.
type ReportStore struct {
	dir string
}

// NewReportStore creates a store writing into dir. The directory is
// created on first save.
func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir}
}

// Save renders a report into dir/name and returns the final path. A failed
// render leaves any previous file with the same name untouched.
func (s *ReportStore) Save(ctx context.Context, name string, render func(io.Writer) error) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", seoaudit.Errorf(seoaudit.EINVALID, "invalid report name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	abort := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := render(tmp); err != nil {
		return abort(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return abort(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	final := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return final, nil
}
