package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestImage creates a simple test image with specified dimensions and colors
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// generateGradientImage creates a gradient test image for color extraction testing
func generateGradientImage(width, height int, startColor, endColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-ratio) + float64(endColor.R)*ratio)
		g := uint8(float64(startColor.G)*(1-ratio) + float64(endColor.G)*ratio)
		b := uint8(float64(startColor.B)*(1-ratio) + float64(endColor.B)*ratio)

		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

// encodeTestPNG returns img as PNG bytes
func encodeTestPNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// assertNoError is a test helper that fails the test if an error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// assertEqual is a generic test helper for comparing values
func assertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	assert.Equal(t, want, got, msg)
}

// isValidHexColor checks if a string is a valid hex color (e.g., "#RRGGBB")
func isValidHexColor(color string) bool {
	return len(color) == 7 && isValidColor(color)
}

// fakeClock is a manually advanced clock for PositionTracker tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(secondsToDuration(seconds))
}

// fakeProcess is a PlaybackProcess whose lifetime the test controls
type fakeProcess struct {
	running bool
	stopped bool
	exitErr error
}

func (p *fakeProcess) Running() bool { return p.running }

func (p *fakeProcess) ExitErr() error { return p.exitErr }

func (p *fakeProcess) Stop() error {
	p.running = false
	p.stopped = true
	return nil
}

// launch records one Launch call
type launch struct {
	path  string
	start float64
}

// fakeLauncher records launches and hands out fakeProcesses
type fakeLauncher struct {
	launches []launch
	procs    []*fakeProcess
	err      error
}

func (l *fakeLauncher) Launch(path string, start float64) (PlaybackProcess, error) {
	l.launches = append(l.launches, launch{path: path, start: start})
	if l.err != nil {
		return nil, l.err
	}
	p := &fakeProcess{running: true}
	l.procs = append(l.procs, p)
	return p, nil
}

// last returns the most recent process
func (l *fakeLauncher) last() *fakeProcess {
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}
