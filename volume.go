package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
)

// volumeFree reports free bytes on the filesystem holding path.
func volumeFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return usage.Free, nil
}

func formatBytes(size uint64) string {
	return humanize.IBytes(size)
}

func summarizeRemoval(result RemovalResult, dryRun bool) string {
	verb := "Freed"
	if dryRun {
		verb = "Would free"
	}
	line := fmt.Sprintf("%s %s from %d director%s", verb, formatBytes(result.BytesFreed), len(result.Removed), plural(len(result.Removed), "y", "ies"))
	if len(result.Failures) > 0 {
		line += fmt.Sprintf(", %d failed", len(result.Failures))
	}
	if result.Cancelled {
		line += " (cancelled)"
	}
	return line
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
