package main

import "context"

// PlaybackProcess is a running instance of the external player
type PlaybackProcess interface {
	Running() bool
	Stop() error
	// ExitErr is the exit status once the process has ended on its own
	ExitErr() error
}

// Launcher starts the external player for a file at a start offset in seconds
type Launcher interface {
	Launch(path string, start float64) (PlaybackProcess, error)
}

// DurationProber reports the length of a file in seconds, 0 if unknown
type DurationProber interface {
	Duration(ctx context.Context, path string) float64
}
