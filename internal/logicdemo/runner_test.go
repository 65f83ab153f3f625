package logicdemo_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/logicdemo"
)

func TestRun_MissingSourceDegradesToOffline(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	r := logicdemo.NewRunner(filepath.Join(dir, "missing.cpp"), filepath.Join(dir, "demo"), log)

	out := r.Run(context.Background(), "device_123")

	assert.Contains(t, out, "[OFFLINE]")
}
