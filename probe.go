package main

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// probeWaitDelay bounds how long Duration waits for output pipes after the
// prober was cancelled
const probeWaitDelay = 500 * time.Millisecond

// FFProbe implements DurationProber by shelling out to ffprobe
type FFProbe struct {
	logger *zap.Logger
	// settings returns the binary and timeout for the next probe
	settings func() (binary string, timeout time.Duration)
}

// NewFFProbe creates a prober. A zero timeout means no limit beyond ctx.
func NewFFProbe(logger *zap.Logger, binary string, timeout time.Duration) *FFProbe {
	return &FFProbe{
		logger:   logger,
		settings: func() (string, time.Duration) { return binary, timeout },
	}
}

// NewConfiguredFFProbe reads playback.prober and playback.probe_timeout_ms
// on every probe
func NewConfiguredFFProbe(logger *zap.Logger) *FFProbe {
	return &FFProbe{
		logger: logger,
		settings: func() (string, time.Duration) {
			cfg := config.Get()
			return cfg.Playback.Prober, time.Duration(cfg.Playback.ProbeTimeoutMs) * time.Millisecond
		},
	}
}

// Duration returns the track length in seconds, or 0 on any failure
func (f *FFProbe) Duration(ctx context.Context, path string) float64 {
	binary, timeout := f.settings()
	if binary == "" {
		return 0
	}
	if _, err := exec.LookPath(binary); err != nil {
		f.logger.Info("Duration prober not available", zap.String("binary", binary))
		return 0
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	// Wrapper scripts leave children holding stdout; the whole group goes
	// on cancel, and WaitDelay stops Run from blocking on the pipe
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if err := killGroup(cmd.Process.Pid); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = probeWaitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		f.logger.Debug("Duration probe failed", zap.String("path", path), zap.Error(err))
		return 0
	}

	return parseDuration(out.String())
}

// parseDuration reads ffprobe's bare duration output ("215.431000")
func parseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Some containers report one value per stream; the first is the format duration
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0
	}
	return d
}
