// Package output lays a built report out on disk: a timestamped report
// folder holding the dashboard, the shared assets and one page per host.
package output

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/CosmoTheDev/vulnbyhost/internal/report"
)

// DirTimeLayout stamps report folder names.
const DirTimeLayout = "02_01_2006-03-04-05_PM"

// AssetsDir is the shared asset folder inside a report folder.
const AssetsDir = "assets"

// Writer writes reports below Root.
type Writer struct {
	Root string
	fs   afero.Fs
	now  func() time.Time
}

// NewWriter returns a Writer on the real filesystem.
func NewWriter(root string) *Writer {
	return NewWriterFs(afero.NewOsFs(), root)
}

// NewWriterFs returns a Writer backed by fsys.
func NewWriterFs(fsys afero.Fs, root string) *Writer {
	return &Writer{Root: root, fs: fsys, now: time.Now}
}

// DirName is the folder name for a customer's report generated at t.
func DirName(customer string, t time.Time) string {
	return Slugify(fmt.Sprintf("report_%s_%s", customer, t.Format(DirTimeLayout)))
}

// Write creates the report folder and everything in it, returning the
// folder path.
func (w *Writer) Write(rep *report.Report, customer string) (string, error) {
	dir := filepath.Join(w.Root, DirName(customer, w.now()))
	if err := w.fs.MkdirAll(filepath.Join(dir, report.HostReportsDir), 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	if err := w.writePage(dir, rep.Dashboard); err != nil {
		return "", err
	}
	for _, p := range rep.Hosts {
		if err := w.writePage(dir, p); err != nil {
			return "", err
		}
	}
	if err := w.CopyAssets(dir); err != nil {
		return "", err
	}

	slog.Info("Report written", "dir", dir, "hosts", len(rep.Hosts))
	return dir, nil
}

func (w *Writer) writePage(dir string, p report.Page) error {
	dst := filepath.Join(dir, filepath.FromSlash(p.Path))
	if err := afero.WriteFile(w.fs, dst, []byte(p.Content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.Path, err)
	}
	slog.Debug("Wrote page", "path", dst)
	return nil
}

// CopyAssets replaces dir/assets with the embedded asset set.
func (w *Writer) CopyAssets(dir string) error {
	dst := filepath.Join(dir, AssetsDir)
	if err := w.fs.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing old assets: %w", err)
	}
	src := report.Assets()
	return fs.WalkDir(src, AssetsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if d.IsDir() {
			return w.fs.MkdirAll(target, 0o755)
		}
		b, err := fs.ReadFile(src, p)
		if err != nil {
			return fmt.Errorf("reading asset %s: %w", path.Base(p), err)
		}
		if err := afero.WriteFile(w.fs, target, b, 0o644); err != nil {
			return fmt.Errorf("copying asset %s: %w", p, err)
		}
		return nil
	})
}
