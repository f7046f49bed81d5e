package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Candidate is a discovered target directory. Selection state belongs to the UI.
type Candidate struct {
	Path    string
	RelPath string
	Target  string
}

type ScanProgress struct {
	Visited int
	Found   int
	Skipped int
}

type ScanOptions struct {
	Root       string
	Targets    map[string]TargetDef
	MaxDepth   int
	SkipDirs   map[string]struct{}
	Ignore     gitignore.IgnoreMatcher
	OnProgress func(ScanProgress)
	Logger     *slog.Logger
}

func defaultSkipDirs() map[string]struct{} {
	return map[string]struct{}{
		".git": {},
		".hg":  {},
		".svn": {},
	}
}

// Scan validates the root and returns a lazy walk over it. Each range over the
// returned sequence performs a fresh traversal; cancelling ctx ends it early.
func Scan(ctx context.Context, opts ScanOptions) (iter.Seq[Candidate], error) {
	absRoot, err := validateRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = absRoot
	if opts.Targets == nil {
		opts.Targets = buildTargetMapWithList(nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	return func(yield func(Candidate) bool) {
		walkCandidates(ctx, opts, yield)
	}, nil
}

// ScanAll drains Scan into a slice.
func ScanAll(ctx context.Context, opts ScanOptions) ([]Candidate, error) {
	seq, err := Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	found := []Candidate{}
	for c := range seq {
		found = append(found, c)
	}
	return found, nil
}

func validateRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidRootError{Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", &InvalidRootError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return "", &InvalidRootError{Path: absRoot, Err: ErrNotDirectory}
	}
	dir, err := os.Open(absRoot)
	if err != nil {
		return "", &InvalidRootError{Path: absRoot, Err: err}
	}
	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		_ = dir.Close()
		return "", &InvalidRootError{Path: absRoot, Err: err}
	}
	_ = dir.Close()
	return absRoot, nil
}

func walkCandidates(ctx context.Context, opts ScanOptions, yield func(Candidate) bool) {
	log := opts.Logger
	rootHandle, err := os.OpenRoot(opts.Root)
	if err != nil {
		// root vanished or became unreadable after validation
		log.Warn("scan: open root", "root", opts.Root, "err", err)
		return
	}
	defer func() {
		if closeErr := rootHandle.Close(); closeErr != nil {
			log.Debug("scan: close root", "err", closeErr)
		}
	}()

	progress := ScanProgress{}
	report := func() {
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	err = fs.WalkDir(rootHandle.FS(), ".", func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == "." {
				return err
			}
			progress.Skipped++
			report()
			log.Debug("scan: skipping unreadable directory", "path", filepath.FromSlash(path), "err", err)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// WalkDir reports symlinks as non-directories, so they are never entered.
		if !entry.IsDir() {
			return nil
		}

		progress.Visited++
		if path == "." {
			report()
			return nil
		}

		name := entry.Name()
		if _, ok := opts.SkipDirs[name]; ok {
			return fs.SkipDir
		}
		if opts.MaxDepth > 0 && relativeDepth(path) > opts.MaxDepth {
			return fs.SkipDir
		}

		absPath := filepath.Join(opts.Root, filepath.FromSlash(path))
		if opts.Ignore != nil && opts.Ignore.Match(absPath, true) {
			log.Debug("scan: ignored", "path", absPath)
			return fs.SkipDir
		}

		if def, ok := opts.Targets[name]; ok {
			progress.Found++
			report()
			if !yield(Candidate{Path: absPath, RelPath: filepath.FromSlash(path), Target: def.Name}) {
				return fs.SkipAll
			}
			return fs.SkipDir
		}

		report()
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("scan: walk stopped", "root", opts.Root, "err", err)
	}
}

// DirSize sums regular file sizes under path. Symlinks are not followed or
// counted and unreadable entries are skipped.
func DirSize(ctx context.Context, path string) (uint64, error) {
	var size uint64
	err := filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if entry == nil {
				return err
			}
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			// removed between listing and stat
			return nil
		}
		size += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

func relativeDepth(relPath string) int {
	trimmed := strings.TrimPrefix(relPath, "./")
	if trimmed == "." || trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/")
}

func loadIgnoreFile(path, root string) (gitignore.IgnoreMatcher, error) {
	if path == "" {
		return nil, nil
	}
	return gitignore.NewGitIgnore(path, root)
}
