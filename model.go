package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// model is the Bubble Tea model for the player UI
type model struct {
	color     string
	width     int
	height    int
	lastError error

	logger *zap.Logger
	player *Player
	prober DurationProber
	remote *MPRISServer

	// File picker ("open file" dialog)
	picker  filepicker.Model
	picking bool
	loading string // Path of the file being loaded in the background
	initial string // File given on the command line

	// Album artwork support
	artworkEncoded string // Kitty protocol-encoded artwork for display
	supportsKitty  bool   // Whether terminal supports Kitty graphics

	// Text scrolling state
	scrollOffset int // Current scroll position for text animation
	scrollPause  int // Pause counter at start/end of scroll
	scrollTick   int // Tick counter for slowing scroll speed

	showHelp bool
}

// UI refresh tick: polls the player and re-renders
type tickMsg time.Time

// Result of loading a file in the background
type trackLoadedMsg struct {
	path    string // The file that was requested, also set on errors
	track   Track
	artwork string // Kitty-encoded artwork
	color   string // Extracted dominant color
	err     error
}

// Result of re-rendering artwork after a config change
type artworkMsg struct {
	trackID string
	artwork string
	color   string
}

func newModel(logger *zap.Logger, player *Player, prober DurationProber, remote *MPRISServer, supportsKitty bool, initialPath string) model {
	cfg := config.Get()

	picker := filepicker.New()
	picker.AllowedTypes = audioExtensions
	picker.CurrentDirectory = pickerStartDir(initialPath)

	return model{
		color:         cfg.UI.Color,
		logger:        logger,
		player:        player,
		prober:        prober,
		remote:        remote,
		picker:        picker,
		supportsKitty: supportsKitty,
		initial:       initialPath,
		loading:       initialPath,
	}
}

// pickerStartDir opens the picker next to the initial file, else in the
// working directory
func pickerStartDir(initialPath string) string {
	if initialPath != "" {
		return filepath.Dir(initialPath)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Schedule next UI refresh tick
func tickCmd() tea.Cmd {
	cfg := config.Get()
	return tea.Tick(time.Duration(cfg.Timing.UIRefreshMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadTrackCmd reads tags, probes the duration and renders artwork off the UI goroutine
func (m model) loadTrackCmd(path string) tea.Cmd {
	supportsKitty := m.supportsKitty
	prober := m.prober
	logger := m.logger
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return trackLoadedMsg{path: path, err: fmt.Errorf("cannot open %s: %w", filepath.Base(path), err)}
		}
		if info.IsDir() {
			return trackLoadedMsg{path: path, err: fmt.Errorf("%s is a directory", filepath.Base(path))}
		}

		cfg := config.Get()
		track := Track{
			ID:       newTrackID(),
			Path:     path,
			Metadata: ReadMetadata(logger, path),
		}
		track.Duration = prober.Duration(context.Background(), path)

		var artwork, color string
		if supportsKitty && cfg.Artwork.Enabled {
			color, artwork = renderTrackArtwork(track.Artwork, cfg.UI.ColorMode == "auto")
		}

		return trackLoadedMsg{path: path, track: track, artwork: artwork, color: color}
	}
}

// artworkCmd re-renders the current track's artwork
func (m model) artworkCmd() tea.Cmd {
	track := m.player.Track()
	if track == nil || !m.supportsKitty {
		return nil
	}
	id, data := track.ID, track.Artwork
	return func() tea.Msg {
		cfg := config.Get()
		color, artwork := renderTrackArtwork(data, cfg.UI.ColorMode == "auto")
		return artworkMsg{trackID: id, artwork: artwork, color: color}
	}
}

// publish pushes the player state to the session bus
func (m model) publish() {
	if m.remote == nil {
		return
	}
	st := remoteState{
		Status:   m.player.Status(),
		Length:   m.player.Length(),
		Position: m.player.Elapsed(),
	}
	if t := m.player.Track(); t != nil {
		st.TrackID = t.ID
		st.Title = t.Title
		st.Artist = t.Artist
		st.Album = t.Album
	}
	m.remote.Update(st)
}

// seeked publishes the new position after a jump
func (m model) seeked() {
	m.publish()
	m.remote.Seeked(m.player.Elapsed())
}

// fail records err for the status line; nil clears it
func (m *model) fail(err error) {
	m.lastError = err
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), watchConfigCmd()}
	if m.initial != "" {
		cmds = append(cmds, m.loadTrackCmd(m.initial))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case configReloadMsg:
		cfg := config.Get()
		if cfg.UI.ColorMode == "manual" {
			m.color = cfg.UI.Color
		}
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
			return m, watchConfigCmd()
		}
		// Width, radius or default image may have changed
		return m, tea.Batch(watchConfigCmd(), m.artworkCmd())

	case tickMsg:
		// Poll catches the player exiting at the end of the track
		if m.player.Poll() || m.player.Playing() {
			m.publish()
		}
		m.advanceScroll()
		return m, tickCmd()

	case trackLoadedMsg:
		if msg.path != m.loading {
			// A newer file was picked while this one loaded
			return m, nil
		}
		m.loading = ""
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.scrollOffset = 0
		m.scrollPause = 30
		m.scrollTick = 0
		m.artworkEncoded = msg.artwork
		cfg := config.Get()
		if cfg.UI.ColorMode == "auto" && msg.color != "" {
			m.color = msg.color
		} else {
			m.color = cfg.UI.Color
		}
		m.fail(m.player.Open(msg.track))
		m.publish()
		return m, nil

	case artworkMsg:
		if t := m.player.Track(); t != nil && t.ID == msg.trackID {
			m.artworkEncoded = msg.artwork
			if msg.color != "" && config.Get().UI.ColorMode == "auto" {
				m.color = msg.color
			}
		}
		return m, nil

	case remoteMsg:
		return m.handleRemote(msg)
	}

	// Directory listings and other internal picker messages
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg := config.Get()
	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Close()
		return m, tea.Quit
	case " ", "p":
		m.fail(m.player.Toggle())
		m.publish()
	case "o":
		m.picking = true
		return m, m.picker.Init()
	case "left", "h":
		m.fail(m.player.SeekBy(-cfg.Playback.SeekStep))
		m.seeked()
	case "right", "l":
		m.fail(m.player.SeekBy(cfg.Playback.SeekStep))
		m.seeked()
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.fail(m.player.SeekRatio(float64(msg.String()[0]-'0') / 10))
		m.seeked()
	case "a":
		// Toggle artwork on/off
		cfg.Artwork.Enabled = !cfg.Artwork.Enabled
		config.Set(cfg)
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
			return m, nil
		}
		return m, m.artworkCmd()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.picking = false
		return m, nil
	case "ctrl+c":
		m.player.Close()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.loading = path
		m.logger.Info("File selected", zap.String("path", path))
		return m, tea.Batch(cmd, m.loadTrackCmd(path))
	}
	return m, cmd
}

func (m model) handleRemote(msg remoteMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case remotePlayPause:
		m.fail(m.player.Toggle())
	case remotePlay:
		if m.player.Track() != nil {
			m.fail(m.player.Resume())
		}
	case remotePause:
		m.player.Pause()
	case remoteStop:
		m.player.Stop()
	case remoteSeekBy:
		m.fail(m.player.SeekBy(msg.seconds))
		m.seeked()
		return m, nil
	case remoteSeekTo:
		// The track may have changed since the bus call was made
		if t := m.player.Track(); t != nil && (msg.trackID == "" || t.ID == msg.trackID) {
			m.fail(m.player.Seek(msg.seconds))
			m.seeked()
		}
		return m, nil
	case remoteOpen:
		m.loading = msg.path
		return m, m.loadTrackCmd(msg.path)
	case remoteQuit:
		m.player.Close()
		return m, tea.Quit
	}
	m.publish()
	return m, nil
}

// advanceScroll moves the title scroll one step on every third tick
func (m *model) advanceScroll() {
	m.scrollTick++
	if m.scrollPause > 0 {
		m.scrollPause--
		return
	}
	if m.scrollTick%3 != 0 {
		return
	}
	m.scrollOffset++

	cfg := config.Get()
	maxLen := m.textWidth(cfg)
	longestLen := 0
	if t := m.player.Track(); t != nil {
		longestLen = len([]rune(t.Display()))
		if l := len([]rune(t.Album)); l > longestLen {
			longestLen = l
		}
	}
	if longestLen <= maxLen {
		m.scrollOffset = 0
		return
	}
	if m.scrollOffset >= longestLen+len([]rune(scrollSeparator)) {
		m.scrollOffset = 0
		m.scrollPause = 30
	}
}

// textWidth is the number of runes shown per metadata line
func (m model) textWidth(cfg Config) int {
	if m.supportsKitty && cfg.Artwork.Enabled && m.artworkEncoded != "" {
		return cfg.Text.MaxLengthWithArt
	}
	return cfg.Text.MaxLengthNoArt
}
