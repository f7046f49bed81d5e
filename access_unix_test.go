//go:build unix

package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveReadOnlyTargetOnDisk(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses write permission checks")
	}
	target := filepath.Join(t.TempDir(), "node_modules")
	writeSized(t, filepath.Join(target, "index.js"), 12)
	require.NoError(t, os.Chmod(target, 0o555))
	t.Cleanup(func() { _ = os.Chmod(target, 0o755) })

	result := Remove(context.Background(), []string{target}, RemoveOptions{})

	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0], fs.ErrPermission)
	assert.Zero(t, result.BytesFreed)
	assert.FileExists(t, filepath.Join(target, "index.js"))
}

func TestCheckWriteAccess(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, checkWriteAccess(dir))
	assert.ErrorIs(t, checkWriteAccess(filepath.Join(dir, "missing")), fs.ErrNotExist)
}

func TestScanSkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses read permission checks")
	}
	root := t.TempDir()
	mkdirs(t, root, "private/node_modules", "public/node_modules")
	private := filepath.Join(root, "private")
	require.NoError(t, os.Chmod(private, 0o000))
	t.Cleanup(func() { _ = os.Chmod(private, 0o755) })

	var last ScanProgress
	found, err := ScanAll(context.Background(), ScanOptions{
		Root:       root,
		OnProgress: func(p ScanProgress) { last = p },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "public", "node_modules")}, candidatePaths(found))
	assert.Equal(t, 1, last.Skipped)
}

func TestScanUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses read permission checks")
	}
	root := filepath.Join(t.TempDir(), "sealed")
	require.NoError(t, os.Mkdir(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := Scan(context.Background(), ScanOptions{Root: root})
	var rootErr *InvalidRootError
	require.ErrorAs(t, err, &rootErr)
	assert.ErrorIs(t, err, fs.ErrPermission)
}
