package main

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan tea.Msg) []tea.Msg {
	msgs := []tea.Msg{}
	for msg := range ch {
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestRunScanStreamSendsSizedRows(t *testing.T) {
	root := projectTree(t)
	ctx := context.Background()
	ch := make(chan tea.Msg)
	go runScanStream(ctx, ctx, ScanOptions{Root: root}, 3, ch)

	rows := []rowData{}
	var finished *scanFinishedMsg
	for _, msg := range drain(ch) {
		switch msg := msg.(type) {
		case scanRowMsg:
			assert.Equal(t, 3, msg.ID)
			rows = append(rows, msg.Row)
		case scanFinishedMsg:
			finished = &msg
		}
	}

	require.NotNil(t, finished)
	assert.NoError(t, finished.Err)
	assert.False(t, finished.Cancelled)
	assert.Equal(t, 2, finished.Progress.Found)
	require.Len(t, rows, 2)
	assert.Equal(t, filepath.Join(root, "a", "node_modules"), rows[0].Path)
	assert.Equal(t, uint64(10), rows[0].SizeBytes)
	assert.Equal(t, uint64(5), rows[1].SizeBytes)
}

func TestRunScanStreamInvalidRoot(t *testing.T) {
	ctx := context.Background()
	ch := make(chan tea.Msg)
	go runScanStream(ctx, ctx, ScanOptions{Root: filepath.Join(t.TempDir(), "missing")}, 1, ch)

	msgs := drain(ch)
	require.Len(t, msgs, 1)
	finished, ok := msgs[0].(scanFinishedMsg)
	require.True(t, ok)
	var rootErr *InvalidRootError
	assert.ErrorAs(t, finished.Err, &rootErr)
}

func TestRunScanStreamAbandonedStreamCloses(t *testing.T) {
	root := projectTree(t)
	streamCtx, stop := context.WithCancel(context.Background())
	stop()
	ch := make(chan tea.Msg)
	go runScanStream(streamCtx, streamCtx, ScanOptions{Root: root}, 1, ch)

	msgs := drain(ch)
	for _, msg := range msgs {
		_, isRow := msg.(scanRowMsg)
		assert.False(t, isRow)
	}
}

func TestRunDeleteStream(t *testing.T) {
	root := projectTree(t)
	targets := []string{filepath.Join(root, "a", "node_modules"), filepath.Join(root, "b", "node_modules")}
	ctx := context.Background()
	ch := make(chan tea.Msg)
	go runDeleteStream(ctx, ctx, RemoveOptions{CheckAccess: allowAll}, targets, 9, ch)

	msgs := drain(ch)
	require.Len(t, msgs, 3)
	first, ok := msgs[0].(deleteProgressMsg)
	require.True(t, ok)
	assert.Equal(t, 9, first.ID)
	assert.Equal(t, 1, first.Progress.Index)

	finished, ok := msgs[2].(deleteFinishedMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(15), finished.Result.BytesFreed)
	assert.Equal(t, targets, finished.Result.Removed)
}

func TestWaitStreamMsg(t *testing.T) {
	assert.Nil(t, waitStreamMsg(nil))

	ch := make(chan tea.Msg, 1)
	ch <- scanPulseMsg{}
	close(ch)
	cmd := waitStreamMsg(ch)
	assert.Equal(t, scanPulseMsg{}, cmd())
	assert.Nil(t, cmd())
}
