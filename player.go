package main

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PlaybackStatus is the player's coarse state
type PlaybackStatus string

const (
	StatusStopped PlaybackStatus = "Stopped"
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
)

var errNoTrack = errors.New("no track loaded")

// Player drives one external playback process at a time and keeps the
// position tracker in step with it. It is not safe for concurrent use;
// the UI loop owns it.
type Player struct {
	logger   *zap.Logger
	launcher Launcher
	tracker  *PositionTracker

	track   *Track
	proc    PlaybackProcess
	stopped bool
}

// NewPlayer creates a player. now may be nil to use the wall clock.
func NewPlayer(logger *zap.Logger, launcher Launcher, now func() time.Time) *Player {
	return &Player{
		logger:   logger,
		launcher: launcher,
		tracker:  NewPositionTracker(now),
	}
}

// Track returns the loaded track, or nil
func (p *Player) Track() *Track { return p.track }

// Open stops current playback and starts the given track from the beginning
func (p *Player) Open(track Track) error {
	p.Stop()
	p.track = &track
	p.tracker.Reset(track.Duration)
	p.logger.Info("Track loaded",
		zap.String("path", track.Path),
		zap.String("title", track.Title),
		zap.Float64("duration", track.Duration))
	return p.start(0)
}

// start (re)launches the player at offset. On failure the player stays
// paused at that offset.
func (p *Player) start(offset float64) error {
	p.kill()
	if p.track == nil {
		return errNoTrack
	}
	p.tracker.Pause()
	offset = p.tracker.Seek(offset)
	p.stopped = false

	proc, err := p.launcher.Launch(p.track.Path, offset)
	if err != nil {
		p.logger.Error("Failed to start playback", zap.String("path", p.track.Path), zap.Error(err))
		return fmt.Errorf("playback: %w", err)
	}
	p.proc = proc
	p.tracker.Start(offset)
	return nil
}

// kill stops the process without touching the stored position
func (p *Player) kill() {
	if p.proc == nil {
		return
	}
	if err := p.proc.Stop(); err != nil {
		p.logger.Warn("Failed to stop player", zap.Error(err))
	}
	p.proc = nil
}

// Playing reports whether a playback process is alive
func (p *Player) Playing() bool {
	return p.proc != nil && p.proc.Running()
}

// Toggle pauses a playing track or resumes a paused one. A track that
// played to the end starts over.
func (p *Player) Toggle() error {
	if p.track == nil {
		return nil
	}
	p.Poll()
	if p.Playing() {
		p.Pause()
		return nil
	}
	return p.Resume()
}

// Pause stores the current position and stops the process
func (p *Player) Pause() {
	if !p.Playing() {
		return
	}
	pos := p.tracker.Pause()
	p.kill()
	p.logger.Debug("Paused", zap.Float64("position", pos))
}

// Resume relaunches the player at the stored position
func (p *Player) Resume() error {
	if p.track == nil {
		return errNoTrack
	}
	p.Poll()
	if p.Playing() {
		return nil
	}
	offset := p.tracker.Elapsed()
	if p.tracker.AtEnd() {
		offset = 0
	}
	return p.start(offset)
}

// Seek relaunches playback at pos, clamped to [0, length]. It is a no-op
// when nothing is loaded or the length is unknown.
func (p *Player) Seek(pos float64) error {
	if p.track == nil || p.tracker.Length() <= 0 {
		return nil
	}
	return p.start(pos)
}

// SeekBy moves the position by delta seconds
func (p *Player) SeekBy(delta float64) error {
	return p.Seek(p.tracker.Elapsed() + delta)
}

// SeekRatio moves to a fraction of the track length
func (p *Player) SeekRatio(ratio float64) error {
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return p.Seek(ratio * p.tracker.Length())
}

// Poll detects a player that exited on its own and pins the position to
// the end of the track. It returns true when that happened.
func (p *Player) Poll() bool {
	if p.proc == nil || p.proc.Running() {
		return false
	}
	if err := p.proc.ExitErr(); err != nil {
		// ffplay exits non-zero on files it cannot decode
		p.logger.Warn("Player exited with error", zap.String("path", p.track.Path), zap.Error(err))
	} else {
		p.logger.Debug("Playback finished")
	}
	p.proc = nil
	p.tracker.Finish()
	return true
}

// Stop ends playback and rewinds to the start
func (p *Player) Stop() {
	p.kill()
	p.tracker.Reset(p.tracker.Length())
	p.stopped = true
}

// Close stops playback for shutdown
func (p *Player) Close() {
	p.kill()
}

// Elapsed returns the current position in seconds
func (p *Player) Elapsed() float64 { return p.tracker.Elapsed() }

// Length returns the track length in seconds, 0 if unknown
func (p *Player) Length() float64 { return p.tracker.Length() }

// Progress returns the position as a fraction of the length
func (p *Player) Progress() float64 { return p.tracker.Progress() }

// Status returns the coarse playback state
func (p *Player) Status() PlaybackStatus {
	switch {
	case p.track == nil, p.stopped:
		return StatusStopped
	case p.Playing():
		return StatusPlaying
	default:
		return StatusPaused
	}
}
