package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "215.431000", 215.431},
		{"trailing newline", "42.5\n", 42.5},
		{"surrounding space", "  7.000  \n", 7},
		{"multiple lines", "180.000\n179.950\n", 180},
		{"integer", "60", 60},
		{"empty", "", 0},
		{"not available", "N/A", 0},
		{"negative", "-3.2", 0},
		{"nan", "NaN", 0},
		{"inf", "Inf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseDuration(tt.input), epsilon)
		})
	}
}

func TestFFProbeMissingBinary(t *testing.T) {
	p := NewFFProbe(zap.NewNop(), "indyaudio-no-such-prober", time.Second)
	assert.Equal(t, 0.0, p.Duration(context.Background(), "/music/song.mp3"))
}

func TestFFProbeDisabled(t *testing.T) {
	p := NewFFProbe(zap.NewNop(), "", 0)
	assert.Equal(t, 0.0, p.Duration(context.Background(), "/music/song.mp3"))
}
