package jmod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	sections     []Section
	overwrite    bool
	preserveMode bool
	workers      int
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (c *extractConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// ExtractSections limits extraction to the given sections.
func ExtractSections(sections ...Section) ExtractOption {
	return func(c *extractConfig) {
		c.sections = append(c.sections, sections...)
	}
}

// ExtractOverwrite allows replacing existing files in the destination.
func ExtractOverwrite(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = enabled
	}
}

// ExtractPreserveMode applies the permission bits recorded in the archive.
func ExtractPreserveMode(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.preserveMode = enabled
	}
}

// ExtractWorkers sets the number of concurrent writers.
// Values < 1 use GOMAXPROCS.
func ExtractWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractLogger sets the logger for extraction.
func ExtractLogger(logger *slog.Logger) ExtractOption {
	return func(c *extractConfig) {
		c.logger = logger
	}
}

// Extract writes the archive's entries below dir, each at
// dir/<section dir>/<name>. Files are written atomically through a temp file.
//
// Entries whose names would resolve outside dir are rejected. A malformed
// container path aborts extraction before any file is written.
func Extract(ctx context.Context, a *Archive, dir string, opts ...ExtractOption) error {
	cfg := &extractConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	workers := cfg.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	var entries []*Entry
	for e, err := range a.Entries() {
		if err != nil {
			return err
		}
		if len(cfg.sections) > 0 && !slices.Contains(cfg.sections, e.Section()) {
			continue
		}
		entries = append(entries, e)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, e := range entries {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			return extractEntry(gctx, a, e, dir, cfg)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg.log().Debug("extracted archive", "name", a.Name(), "dest", dir, "entries", len(entries))
	return nil
}

func extractEntry(ctx context.Context, a *Archive, e *Entry, dir string, cfg *extractConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := filepath.FromSlash(path.Join(e.Section().Dir(), e.Name()))
	if !filepath.IsLocal(rel) {
		return &fs.PathError{Op: "extract", Path: e.Path(), Err: fs.ErrInvalid}
	}
	dest := filepath.Join(dir, rel)

	if e.IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	if !cfg.overwrite {
		if _, err := os.Lstat(dest); err == nil {
			return &fs.PathError{Op: "extract", Path: dest, Err: fs.ErrExist}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	rc, err := a.Open(e)
	if err != nil {
		return err
	}
	defer rc.Close()

	return writeFileAtomic(rc, dest, e, cfg)
}

// writeFileAtomic writes content from src to destPath atomically using a temp file.
func writeFileAtomic(src io.Reader, destPath string, e *Entry, cfg *extractConfig) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".jmod-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("copying %s: %w", e.Path(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	mode := fs.FileMode(0o644)
	if cfg.preserveMode && e.Mode().Perm() != 0 {
		mode = e.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("setting mode: %w", err)
	}

	// On Windows, os.Rename fails if destination exists.
	if cfg.overwrite {
		if info, err := os.Stat(destPath); err == nil && info.IsDir() {
			return &fs.PathError{Op: "extract", Path: destPath, Err: errors.New("is a directory")}
		}
		_ = os.Remove(destPath)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming to destination: %w", err)
	}
	success = true
	return nil
}
