//go:build unix

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeFakeProber installs a shell script standing in for ffprobe
func writeFakeProber(t *testing.T, body string) string {
	t.Helper()
	requireShell(t)
	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFProbeReadsDuration(t *testing.T) {
	bin := writeFakeProber(t, `echo 12.5`)
	p := NewFFProbe(zap.NewNop(), bin, 5*time.Second)

	assert.InDelta(t, 12.5, p.Duration(context.Background(), "/music/song.mp3"), epsilon)
}

func TestFFProbePassesPath(t *testing.T) {
	// The file argument comes last
	bin := writeFakeProber(t, `for last; do :; done; [ "$last" = "/music/my song.flac" ] && echo 99`)
	p := NewFFProbe(zap.NewNop(), bin, 5*time.Second)

	assert.InDelta(t, 99, p.Duration(context.Background(), "/music/my song.flac"), epsilon)
}

func TestFFProbeFailureIsZero(t *testing.T) {
	bin := writeFakeProber(t, `echo 12.5; exit 1`)
	p := NewFFProbe(zap.NewNop(), bin, 5*time.Second)

	assert.Equal(t, 0.0, p.Duration(context.Background(), "/music/song.mp3"))
}

func TestFFProbeTimeout(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"slow prober", `sleep 5; echo 12.5`},
		// A backgrounded child keeps stdout open after the script is killed
		{"wrapper with child", `(sleep 5; echo 12.5) & wait`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := writeFakeProber(t, tt.body)
			p := NewFFProbe(zap.NewNop(), bin, 300*time.Millisecond)

			start := time.Now()
			d := p.Duration(context.Background(), "/music/song.mp3")
			elapsed := time.Since(start)

			assert.Equal(t, 0.0, d)
			assert.Less(t, elapsed, 3*time.Second, "probe is bounded by its timeout")
		})
	}
}

func TestConfiguredFFProbeFollowsReload(t *testing.T) {
	bin := writeFakeProber(t, `echo 42`)
	cfg := defaultConfig()
	cfg.Playback.Prober = ""
	config.Set(cfg)
	t.Cleanup(func() { config.Set(defaultConfig()) })

	p := NewConfiguredFFProbe(zap.NewNop())
	assert.Equal(t, 0.0, p.Duration(context.Background(), "a.mp3"), "prober disabled")

	cfg.Playback.Prober = bin
	config.Set(cfg)
	assert.InDelta(t, 42, p.Duration(context.Background(), "a.mp3"), epsilon)
}
