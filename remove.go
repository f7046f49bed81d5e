package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Deleter abstracts recursive removal so tests can observe or fail deletes.
type Deleter interface {
	RemoveAll(path string) error
}

// errRemoveCancelled reports that ctx ended before the target was touched.
var errRemoveCancelled = errors.New("removal cancelled")

type osDeleter struct{}

func (osDeleter) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

type RemoveProgress struct {
	Index      int
	Total      int
	Path       string
	BytesFreed uint64
	Err        error
}

type RemovalResult struct {
	BytesFreed uint64
	Removed    []string
	Failures   []Failure
	Cancelled  bool
}

type RemoveOptions struct {
	Deleter     Deleter
	CheckAccess func(path string) error
	OnProgress  func(RemoveProgress)
	DryRun      bool
	Logger      *slog.Logger
}

// Remover measures and deletes targets one at a time, in input order.
type Remover struct {
	opts RemoveOptions
}

func NewRemover(opts RemoveOptions) *Remover {
	if opts.Deleter == nil {
		opts.Deleter = osDeleter{}
	}
	if opts.CheckAccess == nil {
		opts.CheckAccess = checkWriteAccess
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	return &Remover{opts: opts}
}

// Remove is shorthand for NewRemover(opts).Remove(ctx, targets).
func Remove(ctx context.Context, targets []string, opts RemoveOptions) RemovalResult {
	return NewRemover(opts).Remove(ctx, targets)
}

// Remove never fails as a whole. Per-target problems end up in Failures and
// the batch continues; cancellation stops before the next target.
func (r *Remover) Remove(ctx context.Context, targets []string) RemovalResult {
	result := RemovalResult{Removed: []string{}, Failures: []Failure{}}
	log := r.opts.Logger

	for idx, target := range targets {
		if ctx.Err() != nil {
			result.Cancelled = true
			log.Info("remove: cancelled", "remaining", len(targets)-idx)
			break
		}

		freed, err := r.removeOne(ctx, target)
		if errors.Is(err, errRemoveCancelled) {
			result.Cancelled = true
			log.Info("remove: cancelled", "remaining", len(targets)-idx)
			break
		}
		if err != nil {
			result.Failures = append(result.Failures, Failure{Path: target, Err: err})
			log.Warn("remove: target failed", "path", target, "err", err)
		} else {
			result.BytesFreed += freed
			result.Removed = append(result.Removed, target)
			log.Info("remove: target removed", "path", target, "bytes", freed, "dry_run", r.opts.DryRun)
		}

		if r.opts.OnProgress != nil {
			r.opts.OnProgress(RemoveProgress{
				Index:      idx + 1,
				Total:      len(targets),
				Path:       target,
				BytesFreed: result.BytesFreed,
				Err:        err,
			})
		}
	}

	return result
}

func (r *Remover) removeOne(ctx context.Context, target string) (uint64, error) {
	cleaned, err := validateDeletePath(target)
	if err != nil {
		return 0, &DeletionFailedError{Path: target, Err: err}
	}

	if err := r.opts.CheckAccess(cleaned); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &DeletionFailedError{Path: target, Err: err}
		}
		return 0, &PermissionDeniedError{Path: target, Err: err}
	}

	// Size is measured immediately before deletion; nothing else is assumed to
	// mutate the target in between.
	size, err := DirSize(ctx, cleaned)
	if err != nil && ctx.Err() != nil {
		return 0, errRemoveCancelled
	}
	if err != nil {
		return 0, &DeletionFailedError{Path: target, Err: fmt.Errorf("measure: %w", err)}
	}

	if r.opts.DryRun {
		return size, nil
	}

	removeErr := r.opts.Deleter.RemoveAll(cleaned)
	if _, statErr := os.Lstat(cleaned); statErr == nil {
		if removeErr == nil {
			removeErr = errors.New("target still present after removal")
		}
		return 0, &DeletionFailedError{Path: target, Err: removeErr}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return 0, &DeletionFailedError{Path: target, Err: statErr}
	}

	if removeErr != nil {
		// inner entries failed but the target itself is gone
		r.opts.Logger.Debug("remove: partial errors", "path", target, "err", removeErr)
	}
	return size, nil
}

func validateDeletePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	cleaned := filepath.Clean(path)
	if cleaned == "." || cleaned == string(os.PathSeparator) || cleaned == filepath.VolumeName(cleaned)+string(os.PathSeparator) {
		return "", errors.New("refusing to delete root")
	}
	return cleaned, nil
}
