package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDeleter records calls and fails for the configured paths.
type fakeDeleter struct {
	Calls []string
	Fail  map[string]error
	Real  bool
}

func (f *fakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, path)
	if err, ok := f.Fail[path]; ok {
		return err
	}
	if f.Real {
		return os.RemoveAll(path)
	}
	return nil
}

func allowAll(string) error { return nil }

func TestRemoveFreesMeasuredBytes(t *testing.T) {
	root := projectTree(t)
	found, err := ScanAll(context.Background(), ScanOptions{Root: root})
	require.NoError(t, err)

	result := Remove(context.Background(), candidatePaths(found), RemoveOptions{})

	assert.Equal(t, uint64(15), result.BytesFreed)
	assert.Empty(t, result.Failures)
	assert.False(t, result.Cancelled)
	assert.Equal(t, candidatePaths(found), result.Removed)
	for _, c := range found {
		assert.NoDirExists(t, c.Path)
	}
	assert.DirExists(t, filepath.Join(root, "a"))
}

func TestRemovePermissionDeniedLeavesTarget(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "locked", "node_modules")
	open := filepath.Join(root, "open", "node_modules")
	writeSized(t, filepath.Join(locked, "a.js"), 40)
	writeSized(t, filepath.Join(open, "b.js"), 4)

	deleter := &fakeDeleter{Real: true}
	result := Remove(context.Background(), []string{locked, open}, RemoveOptions{
		Deleter: deleter,
		CheckAccess: func(path string) error {
			if path == locked {
				return fs.ErrPermission
			}
			return nil
		},
	})

	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, locked, failure.Path)
	var denied *PermissionDeniedError
	require.ErrorAs(t, failure, &denied)
	assert.ErrorIs(t, failure, fs.ErrPermission)

	assert.Equal(t, uint64(4), result.BytesFreed)
	assert.Equal(t, []string{open}, result.Removed)
	assert.Equal(t, []string{open}, deleter.Calls)
	assert.FileExists(t, filepath.Join(locked, "a.js"))
	assert.NoDirExists(t, open)
}

func TestRemoveContinuesPastDeletionFailure(t *testing.T) {
	root := t.TempDir()
	targets := []string{}
	for _, name := range []string{"one", "two", "three", "four"} {
		p := filepath.Join(root, name, "node_modules")
		writeSized(t, filepath.Join(p, "f"), 2)
		targets = append(targets, p)
	}
	busy := errors.New("device or resource busy")
	deleter := &fakeDeleter{Real: true, Fail: map[string]error{targets[1]: busy}}

	result := Remove(context.Background(), targets, RemoveOptions{Deleter: deleter, CheckAccess: allowAll})

	require.Len(t, result.Failures, 1)
	var failed *DeletionFailedError
	require.ErrorAs(t, result.Failures[0], &failed)
	assert.Equal(t, targets[1], failed.Path)
	assert.ErrorIs(t, failed, busy)

	assert.Equal(t, []string{targets[0], targets[2], targets[3]}, result.Removed)
	assert.Equal(t, uint64(6), result.BytesFreed)
	assert.Equal(t, targets, deleter.Calls)
	assert.DirExists(t, targets[1])
}

func TestRemoveTreatsVanishedTargetAsSuccess(t *testing.T) {
	target := filepath.Join(t.TempDir(), "node_modules")
	writeSized(t, filepath.Join(target, "f"), 9)
	deleter := &fakeDeleter{Real: true}
	partial := &partialDeleter{inner: deleter}

	result := Remove(context.Background(), []string{target}, RemoveOptions{Deleter: partial, CheckAccess: allowAll})

	assert.Empty(t, result.Failures)
	assert.Equal(t, uint64(9), result.BytesFreed)
}

// partialDeleter removes the tree but still reports an inner error.
type partialDeleter struct {
	inner Deleter
}

func (p *partialDeleter) RemoveAll(path string) error {
	if err := p.inner.RemoveAll(path); err != nil {
		return err
	}
	return errors.New("unlink inner/file: operation not permitted")
}

func TestRemoveNoopDeleterReportsFailure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "node_modules")
	writeSized(t, filepath.Join(target, "f"), 3)

	result := Remove(context.Background(), []string{target}, RemoveOptions{Deleter: &fakeDeleter{}, CheckAccess: allowAll})

	require.Len(t, result.Failures, 1)
	var failed *DeletionFailedError
	require.ErrorAs(t, result.Failures[0], &failed)
	assert.Zero(t, result.BytesFreed)
	assert.DirExists(t, target)
}

func TestRemoveCancelledBeforeStart(t *testing.T) {
	root := projectTree(t)
	targets := []string{filepath.Join(root, "a", "node_modules"), filepath.Join(root, "b", "node_modules")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Remove(ctx, targets, RemoveOptions{})

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Failures)
	assert.Zero(t, result.BytesFreed)
	assert.DirExists(t, targets[0])
	assert.DirExists(t, targets[1])
}

func TestRemoveCancelledMidBatchKeepsPartialResult(t *testing.T) {
	root := projectTree(t)
	targets := []string{filepath.Join(root, "a", "node_modules"), filepath.Join(root, "b", "node_modules")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progress := []RemoveProgress{}
	result := Remove(ctx, targets, RemoveOptions{
		CheckAccess: allowAll,
		OnProgress: func(p RemoveProgress) {
			progress = append(progress, p)
			cancel()
		},
	})

	assert.True(t, result.Cancelled)
	assert.Equal(t, []string{targets[0]}, result.Removed)
	assert.Equal(t, uint64(10), result.BytesFreed)
	require.Len(t, progress, 1)
	assert.Equal(t, RemoveProgress{Index: 1, Total: 2, Path: targets[0], BytesFreed: 10}, progress[0])
	assert.DirExists(t, targets[1])
}

func TestRemoveCancelledWhileMeasuringIsNotAFailure(t *testing.T) {
	root := projectTree(t)
	targets := []string{filepath.Join(root, "a", "node_modules"), filepath.Join(root, "b", "node_modules")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deleter := &fakeDeleter{Real: true}
	progress := []RemoveProgress{}
	result := Remove(ctx, targets, RemoveOptions{
		Deleter: deleter,
		CheckAccess: func(path string) error {
			if path == targets[1] {
				cancel()
			}
			return nil
		},
		OnProgress: func(p RemoveProgress) { progress = append(progress, p) },
	})

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{targets[0]}, result.Removed)
	assert.Equal(t, uint64(10), result.BytesFreed)
	assert.Equal(t, []string{targets[0]}, deleter.Calls)
	require.Len(t, progress, 1)
	assert.DirExists(t, targets[1])
}

func TestRemoveDryRunKeepsTargets(t *testing.T) {
	root := projectTree(t)
	targets := []string{filepath.Join(root, "a", "node_modules"), filepath.Join(root, "b", "node_modules")}
	deleter := &fakeDeleter{}

	result := Remove(context.Background(), targets, RemoveOptions{DryRun: true, Deleter: deleter, CheckAccess: allowAll})

	assert.Equal(t, uint64(15), result.BytesFreed)
	assert.Equal(t, targets, result.Removed)
	assert.Empty(t, deleter.Calls)
	assert.DirExists(t, targets[0])
	assert.DirExists(t, targets[1])
}

func TestRemoveDoesNotFollowSymlinks(t *testing.T) {
	target := filepath.Join(t.TempDir(), "node_modules")
	writeSized(t, filepath.Join(target, "own.js"), 6)
	outside := filepath.Join(t.TempDir(), "shared.bin")
	writeSized(t, outside, 500)
	if err := os.Symlink(outside, filepath.Join(target, "shared.bin")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result := Remove(context.Background(), []string{target}, RemoveOptions{CheckAccess: allowAll})

	assert.Empty(t, result.Failures)
	assert.Equal(t, uint64(6), result.BytesFreed)
	assert.FileExists(t, outside)
}

func TestRemoveRejectsBadTargets(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "node_modules")
	deleter := &fakeDeleter{}

	result := Remove(context.Background(), []string{"", string(os.PathSeparator), missing}, RemoveOptions{Deleter: deleter})

	require.Len(t, result.Failures, 3)
	for _, f := range result.Failures {
		var failed *DeletionFailedError
		assert.ErrorAs(t, f, &failed)
	}
	assert.ErrorIs(t, result.Failures[2], fs.ErrNotExist)
	assert.Empty(t, deleter.Calls)
	assert.Empty(t, result.Removed)
}

func TestRemoveEmptyTargets(t *testing.T) {
	result := Remove(context.Background(), nil, RemoveOptions{})
	assert.Zero(t, result.BytesFreed)
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Failures)
}
