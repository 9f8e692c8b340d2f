package main

import (
	"net/url"
	"path/filepath"
	"strings"
)

// remoteAction is a playback command coming from outside the UI (media keys)
type remoteAction int

const (
	remotePlayPause remoteAction = iota
	remotePlay
	remotePause
	remoteStop
	remoteSeekBy // seconds relative to the current position
	remoteSeekTo // absolute seconds
	remoteOpen
	remoteQuit
)

// remoteMsg carries a remoteAction into the Bubble Tea loop. The player is
// only ever touched from that loop.
type remoteMsg struct {
	action  remoteAction
	seconds float64
	trackID string // For remoteSeekTo: must match the current track
	path    string // For remoteOpen
}

// remoteState is the snapshot published to the session bus
type remoteState struct {
	Status   PlaybackStatus
	TrackID  string
	Title    string
	Artist   string
	Album    string
	Length   float64
	Position float64
}

// pathFromURI accepts file:// URIs and plain paths
func pathFromURI(uri string) (string, bool) {
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), uri != ""
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.Clean(u.Path), true
}
