package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// audioExtensions lists the formats offered by the file picker
var audioExtensions = []string{".mp3", ".flac", ".wav", ".ogg", ".aac", ".m4a", ".wma"}

// Metadata holds the tags read from an audio file
type Metadata struct {
	Title   string
	Artist  string
	Album   string
	Artwork []byte // Embedded cover image, nil if none
}

// Display returns "Title - Artist", or the title alone when there is no artist
func (md Metadata) Display() string {
	if md.Artist == "" {
		return md.Title
	}
	return fmt.Sprintf("%s - %s", md.Title, md.Artist)
}

// Track is a loaded file ready for playback
type Track struct {
	ID       string
	Path     string
	Duration float64 // Seconds, 0 if unknown
	Metadata
}

// newTrackID returns a fresh identifier usable as a D-Bus object path element
func newTrackID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ReadMetadata extracts tags and cover art. It never fails: anything that
// cannot be read falls back to the file name with no artist and no artwork.
func ReadMetadata(logger *zap.Logger, path string) Metadata {
	md := Metadata{Title: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Could not open audio file", zap.String("path", path), zap.Error(err))
		return md
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// WAV and friends have no tags, this is not worth more than debug
		logger.Debug("No readable tags", zap.String("path", path), zap.Error(err))
		return md
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		md.Title = title
	}
	md.Artist = strings.TrimSpace(m.Artist())
	md.Album = strings.TrimSpace(m.Album())
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		md.Artwork = pic.Data
	}

	return md
}

// isAudioFile reports whether the path has one of the supported extensions
func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range audioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
