package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProber returns a fixed duration
type fakeProber struct {
	duration float64
	calls    []string
}

func (p *fakeProber) Duration(_ context.Context, path string) float64 {
	p.calls = append(p.calls, path)
	return p.duration
}

type modelFixture struct {
	m        model
	launcher *fakeLauncher
	clock    *fakeClock
	prober   *fakeProber
}

func newTestModel(t *testing.T) *modelFixture {
	t.Helper()
	config.Set(defaultConfig())

	clock := newFakeClock()
	launcher := &fakeLauncher{}
	prober := &fakeProber{duration: 180}
	player := NewPlayer(zap.NewNop(), launcher, clock.Now)
	t.Cleanup(player.Close)

	return &modelFixture{
		m:        newModel(zap.NewNop(), player, prober, nil, false, ""),
		launcher: launcher,
		clock:    clock,
		prober:   prober,
	}
}

// send runs msg through Update and keeps the resulting model
func (f *modelFixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(model)
	return cmd
}

func (f *modelFixture) load(t *testing.T) {
	t.Helper()
	f.m.loading = "/music/song.mp3"
	f.send(trackLoadedMsg{path: "/music/song.mp3", track: Track{
		ID:       "abc",
		Path:     "/music/song.mp3",
		Duration: 180,
		Metadata: Metadata{Title: "Song", Artist: "Band", Album: "Record"},
	}})
	require.Len(t, f.launcher.launches, 1)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelTrackLoaded(t *testing.T) {
	f := newTestModel(t)
	f.m.loading = "/music/song.mp3"
	f.send(trackLoadedMsg{
		path:  "/music/song.mp3",
		track: Track{ID: "abc", Path: "/music/song.mp3", Duration: 180, Metadata: Metadata{Title: "Song"}},
		color: "#112233",
	})

	assert.Equal(t, StatusPlaying, f.m.player.Status())
	assert.Equal(t, "#112233", f.m.color, "auto color mode takes the cover color")
	assert.NoError(t, f.m.lastError)
}

func TestModelTrackLoadedManualColor(t *testing.T) {
	f := newTestModel(t)
	cfg := config.Get()
	cfg.UI.ColorMode = "manual"
	cfg.UI.Color = "5"
	config.Set(cfg)

	f.m.loading = "/a.mp3"
	f.send(trackLoadedMsg{path: "/a.mp3", track: Track{ID: "abc", Path: "/a.mp3"}, color: "#112233"})
	assert.Equal(t, "5", f.m.color)
}

func TestModelStaleLoadIgnored(t *testing.T) {
	f := newTestModel(t)
	f.m.loading = "/music/newer.mp3"

	f.send(trackLoadedMsg{path: "/music/older.mp3", track: Track{ID: "old", Path: "/music/older.mp3"}})

	assert.Empty(t, f.launcher.launches)
	assert.Nil(t, f.m.player.Track())
	assert.Equal(t, "/music/newer.mp3", f.m.loading)
}

func TestModelStaleLoadAfterNewerFailure(t *testing.T) {
	f := newTestModel(t)

	// Pick a slow file, then a broken one
	f.m.loading = "/music/slow.mp3"
	f.m.loading = "/music/broken.mp3"

	f.send(trackLoadedMsg{path: "/music/broken.mp3", err: errors.New("cannot open broken.mp3")})
	assert.Empty(t, f.m.loading)
	assert.EqualError(t, f.m.lastError, "cannot open broken.mp3")

	f.send(trackLoadedMsg{path: "/music/slow.mp3", track: Track{ID: "slow", Path: "/music/slow.mp3"}})
	assert.Empty(t, f.launcher.launches, "the earlier pick is not played")
	assert.Nil(t, f.m.player.Track())
	assert.EqualError(t, f.m.lastError, "cannot open broken.mp3")
}

func TestModelStaleErrorIgnored(t *testing.T) {
	f := newTestModel(t)
	f.m.loading = "/music/current.mp3"

	f.send(trackLoadedMsg{path: "/music/old.mp3", err: errors.New("cannot open old.mp3")})
	assert.Equal(t, "/music/current.mp3", f.m.loading, "still waiting for the current pick")
	assert.NoError(t, f.m.lastError)
}

func TestModelLoadError(t *testing.T) {
	f := newTestModel(t)
	f.m.loading = "/music/missing.mp3"

	f.send(trackLoadedMsg{path: "/music/missing.mp3", err: errors.New("cannot open missing.mp3")})

	assert.Empty(t, f.m.loading)
	assert.EqualError(t, f.m.lastError, "cannot open missing.mp3")
	assert.Contains(t, f.m.View(), "Error: cannot open missing.mp3")
}

func TestModelSpaceToggles(t *testing.T) {
	f := newTestModel(t)
	f.load(t)
	f.clock.Advance(20)

	f.send(keyRunes(" "))
	assert.Equal(t, StatusPaused, f.m.player.Status())
	assert.InDelta(t, 20, f.m.player.Elapsed(), epsilon)

	f.send(keyRunes("p"))
	assert.Equal(t, StatusPlaying, f.m.player.Status())
	assert.InDelta(t, 20, f.launcher.launches[1].start, epsilon)
}

func TestModelSeekKeys(t *testing.T) {
	f := newTestModel(t)
	f.load(t)
	f.clock.Advance(30)

	f.send(tea.KeyMsg{Type: tea.KeyRight})
	assert.InDelta(t, 35, f.m.player.Elapsed(), epsilon)

	f.send(keyRunes("h"))
	assert.InDelta(t, 30, f.m.player.Elapsed(), epsilon)

	f.send(keyRunes("5"))
	assert.InDelta(t, 90, f.m.player.Elapsed(), epsilon)

	f.send(keyRunes("0"))
	assert.InDelta(t, 0, f.m.player.Elapsed(), epsilon)
}

func TestModelQuit(t *testing.T) {
	f := newTestModel(t)
	f.load(t)

	cmd := f.send(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, f.launcher.last().stopped, "quitting stops the player")
}

func TestModelPickerOpenClose(t *testing.T) {
	f := newTestModel(t)

	f.send(keyRunes("o"))
	assert.True(t, f.m.picking)
	assert.Contains(t, f.m.View(), "Open Audio File")

	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.m.picking)
}

func TestModelHelpToggle(t *testing.T) {
	f := newTestModel(t)

	assert.Contains(t, f.m.View(), "Press ? for help")
	f.send(keyRunes("?"))
	assert.True(t, f.m.showHelp)
	assert.Contains(t, f.m.View(), "Play/Pause")
}

func TestModelTickDetectsEnd(t *testing.T) {
	f := newTestModel(t)
	f.load(t)
	f.clock.Advance(180)
	f.launcher.last().running = false

	cmd := f.send(tickMsg{})
	assert.NotNil(t, cmd, "ticks keep rescheduling")
	assert.Equal(t, StatusPaused, f.m.player.Status())
	assert.InDelta(t, 180, f.m.player.Elapsed(), epsilon)
}

func TestModelRemoteActions(t *testing.T) {
	f := newTestModel(t)
	f.load(t)
	f.clock.Advance(10)

	f.send(remoteMsg{action: remotePause})
	assert.Equal(t, StatusPaused, f.m.player.Status())

	f.send(remoteMsg{action: remotePlay})
	assert.Equal(t, StatusPlaying, f.m.player.Status())

	f.send(remoteMsg{action: remoteSeekBy, seconds: 15})
	assert.InDelta(t, 25, f.m.player.Elapsed(), epsilon)

	f.send(remoteMsg{action: remoteSeekTo, seconds: 100, trackID: "someone-else"})
	assert.InDelta(t, 25, f.m.player.Elapsed(), epsilon, "seek for another track is ignored")

	f.send(remoteMsg{action: remoteSeekTo, seconds: 100, trackID: "abc"})
	assert.InDelta(t, 100, f.m.player.Elapsed(), epsilon)

	f.send(remoteMsg{action: remoteStop})
	assert.Equal(t, StatusStopped, f.m.player.Status())

	f.send(remoteMsg{action: remotePlayPause})
	assert.Equal(t, StatusPlaying, f.m.player.Status())

	cmd := f.send(remoteMsg{action: remoteQuit})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelRemoteOpen(t *testing.T) {
	f := newTestModel(t)

	cmd := f.send(remoteMsg{action: remoteOpen, path: "/music/other.flac"})
	assert.Equal(t, "/music/other.flac", f.m.loading)
	assert.NotNil(t, cmd)
}

func TestLoadTrackCmd(t *testing.T) {
	f := newTestModel(t)
	path := filepath.Join(t.TempDir(), "plain.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	msg, ok := f.m.loadTrackCmd(path)().(trackLoadedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	assert.Equal(t, path, msg.path)
	assert.Equal(t, path, msg.track.Path)
	assert.Equal(t, "plain.wav", msg.track.Title)
	assert.Equal(t, 180.0, msg.track.Duration)
	assert.NotEmpty(t, msg.track.ID)
	assert.Empty(t, msg.artwork, "no artwork without Kitty support")
	assert.Equal(t, []string{path}, f.prober.calls)
}

func TestLoadTrackCmdErrors(t *testing.T) {
	f := newTestModel(t)

	missing := filepath.Join(t.TempDir(), "missing.mp3")
	msg := f.m.loadTrackCmd(missing)().(trackLoadedMsg)
	assert.Error(t, msg.err)
	assert.Equal(t, missing, msg.path, "errors carry the requested path")

	msg = f.m.loadTrackCmd(t.TempDir())().(trackLoadedMsg)
	assert.ErrorContains(t, msg.err, "is a directory")
	assert.Empty(t, f.prober.calls)
}

func TestModelView(t *testing.T) {
	f := newTestModel(t)
	assert.Contains(t, f.m.View(), "No track loaded")

	f.m.loading = "/music/song.mp3"
	assert.Contains(t, f.m.View(), "Loading song.mp3")

	f.m.loading = ""
	f.load(t)
	f.clock.Advance(65)

	view := f.m.View()
	assert.Contains(t, view, "Song - Band")
	assert.Contains(t, view, "Record")
	assert.Contains(t, view, "Playing")
	assert.Contains(t, view, "01:05 / 03:00")
}
