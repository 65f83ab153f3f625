// Package logicdemo shells out to the bundled C++ data-structures demo and
// captures its output. It is a demonstration surface only; nothing in the
// security engine depends on it.
package logicdemo

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

const offlineMessage = "C++ Logic Engine: [OFFLINE]. Make sure g++ is installed."

var argSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._,-]`)

type Runner struct {
	SourcePath string
	BinaryPath string
	log        *slog.Logger
}

func NewRunner(sourcePath, binaryPath string, log *slog.Logger) *Runner {
	return &Runner{SourcePath: sourcePath, BinaryPath: binaryPath, log: log}
}

// Run compiles the demo source and executes it with the given arguments.
// Arguments are stripped down to a safe character set before they reach the
// shellless exec call. Any failure degrades to the offline banner rather
// than an error; the endpoint is purely informational.
func (r *Runner) Run(ctx context.Context, args ...string) string {
	if _, err := os.Stat(r.SourcePath); err != nil {
		r.log.Warn("logic demo source missing", "path", r.SourcePath)
		return offlineMessage
	}

	safe := make([]string, 0, len(args))
	for _, a := range args {
		if cleaned := argSanitizer.ReplaceAllString(a, ""); cleaned != "" {
			safe = append(safe, cleaned)
		}
	}

	// Remove any stale binary so a failed compile cannot run old code.
	_ = os.Remove(r.BinaryPath)

	compile := exec.CommandContext(ctx, "g++", r.SourcePath, "-o", r.BinaryPath)
	if out, err := compile.CombinedOutput(); err != nil {
		r.log.Warn("logic demo compilation failed", "error", err, "output", strings.TrimSpace(string(out)))
		return offlineMessage
	}

	run := exec.CommandContext(ctx, r.BinaryPath, safe...)
	out, err := run.Output()
	if err != nil {
		r.log.Warn("logic demo execution failed", "error", err)
		return offlineMessage
	}

	return string(out)
}
