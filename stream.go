package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const progressInterval = 200 * time.Millisecond

// send delivers msg unless the stream has been abandoned.
func send(ctx context.Context, out chan<- tea.Msg, msg tea.Msg) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func scanStartCmd(streamCtx, walkCtx context.Context, opts ScanOptions, id int) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan tea.Msg)
		go runScanStream(streamCtx, walkCtx, opts, id, ch)
		return scanStreamMsg{ID: id, Ch: ch}
	}
}

func runScanStream(streamCtx, walkCtx context.Context, opts ScanOptions, id int, out chan<- tea.Msg) {
	defer close(out)

	start := time.Now()
	var latest ScanProgress
	lastSent := time.Now()
	opts.OnProgress = func(p ScanProgress) {
		latest = p
		if time.Since(lastSent) > progressInterval {
			send(streamCtx, out, scanProgressMsg{ID: id, Progress: p})
			lastSent = time.Now()
		}
	}

	seq, err := Scan(walkCtx, opts)
	if err != nil {
		send(streamCtx, out, scanFinishedMsg{ID: id, Err: err, Elapsed: time.Since(start)})
		return
	}

	for c := range seq {
		row := rowData{Path: c.Path, RelPath: c.RelPath, Target: c.Target}
		size, sizeErr := DirSize(walkCtx, c.Path)
		if sizeErr != nil {
			row.SizeErr = sizeErr.Error()
		}
		row.SizeBytes = size
		if !send(streamCtx, out, scanRowMsg{ID: id, Row: row}) {
			return
		}
	}

	send(streamCtx, out, scanFinishedMsg{
		ID:        id,
		Cancelled: walkCtx.Err() != nil,
		Elapsed:   time.Since(start),
		Progress:  latest,
	})
}

func deleteStartCmd(streamCtx, workCtx context.Context, opts RemoveOptions, paths []string, id int) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan tea.Msg)
		go runDeleteStream(streamCtx, workCtx, opts, paths, id, ch)
		return deleteStreamMsg{ID: id, Ch: ch}
	}
}

func runDeleteStream(streamCtx, workCtx context.Context, opts RemoveOptions, paths []string, id int, out chan<- tea.Msg) {
	defer close(out)

	opts.OnProgress = func(p RemoveProgress) {
		send(streamCtx, out, deleteProgressMsg{ID: id, Progress: p})
	}
	result := Remove(workCtx, paths, opts)
	send(streamCtx, out, deleteFinishedMsg{ID: id, Result: result})
}

func waitStreamMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func recalcSizeCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		size, err := DirSize(ctx, path)
		return recalcSizeMsg{Path: path, Size: size, Err: err}
	}
}

func volumeCmd(path string) tea.Cmd {
	return func() tea.Msg {
		free, err := volumeFree(path)
		return volumeMsg{Free: free, Err: err}
	}
}

func scanPulseCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return scanPulseMsg{}
	})
}
