package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// transcriptWriter mirrors one stream (stdout or stderr) of a running
// command's output to both the terminal (color-coded per check ID) and an
// optional on-disk transcript file, adapted from the teacher's
// internal/runner.OutputProcessor/RunCommand — generalized from a
// per-repository log to a per-check-invocation one. It is driven by
// commands.CommandExecutor.ExecuteStreaming's LineSink callback rather than
// scanning a pipe itself, so the subprocess plumbing lives in one place.
type transcriptWriter struct {
	checkID   string
	logFile   *os.File
	isStderr  bool
	headerSet bool
}

// writeLine is a commands.LineSink: it fans one already-scanned line out to
// the terminal and transcript file.
func (w *transcriptWriter) writeLine(line string) {
	var tint func(a ...interface{}) string
	if w.isStderr {
		tint = color.New(color.FgRed, color.Bold).SprintFunc()
	} else {
		tint = color.New(color.FgCyan).SprintFunc()
	}

	if w.isStderr {
		_, _ = fmt.Fprintf(os.Stderr, "%s | %s\n", tint(w.checkID), line)
	} else {
		fmt.Printf("%s | %s\n", tint(w.checkID), line)
	}

	if w.logFile != nil {
		if w.isStderr && !w.headerSet {
			_, _ = w.logFile.WriteString("\n=== STDERR ===\n")
			w.headerSet = true
		}
		_, _ = fmt.Fprintf(w.logFile, "%s | %s\n", w.checkID, line)
		_ = w.logFile.Sync()
	}
}

// prepareTranscript creates and headers a transcript file for one check
// invocation, or returns (nil, "", nil) when dir is empty.
func prepareTranscript(dir, checkID, command string) (*os.File, string, error) {
	if dir == "" {
		return nil, "", nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", checkID, time.Now().Format("20060102_150405")))
	f, err := os.Create(path) // #nosec G304 -- path is built from a configured transcript dir + check id
	if err != nil {
		return nil, "", fmt.Errorf("failed to create transcript file: %w", err)
	}

	_, _ = fmt.Fprintf(f, "Check: %s\n", checkID)
	_, _ = fmt.Fprintf(f, "Command: %s\n", command)
	_, _ = fmt.Fprintf(f, "Timestamp: %s\n\n", time.Now().Format(time.RFC3339))
	_, _ = f.WriteString("=== STDOUT ===\n")

	return f, path, nil
}
