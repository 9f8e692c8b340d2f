//go:build linux

package main

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

const (
	mprisBusName     = "org.mpris.MediaPlayer2.indyaudio"
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisTrackPrefix = "/org/indyaudio/track/"
	noTrackPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

var supportedMimeTypes = []string{
	"audio/mpeg", "audio/flac", "audio/x-wav", "audio/ogg",
	"audio/aac", "audio/mp4", "audio/x-ms-wma",
}

// MPRISServer publishes the player on the session bus so desktop media
// keys and widgets can control it
type MPRISServer struct {
	logger *zap.Logger
	conn   *dbus.Conn
	props  *prop.Properties

	mu       sync.Mutex
	last     remoteState
	hasState bool
}

func trackObjectPath(id string) dbus.ObjectPath {
	if id == "" {
		return noTrackPath
	}
	return dbus.ObjectPath(mprisTrackPrefix + id)
}

// startMPRIS connects to the session bus and claims the MPRIS name.
// Incoming calls are delivered through send.
func startMPRIS(logger *zap.Logger, send func(tea.Msg)) (*MPRISServer, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	s := &MPRISServer{logger: logger, conn: conn}
	root := &mprisRoot{send: send}
	player := &mprisPlayer{send: send, server: s}

	if err := conn.Export(root, mprisPath, mprisRootIface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting %s: %w", mprisRootIface, err)
	}
	if err := conn.Export(player, mprisPath, mprisPlayerIface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting %s: %w", mprisPlayerIface, err)
	}

	props, err := prop.Export(conn, mprisPath, prop.Map{
		mprisRootIface: {
			"CanQuit":             {Value: true, Emit: prop.EmitConst},
			"CanRaise":            {Value: false, Emit: prop.EmitConst},
			"HasTrackList":        {Value: false, Emit: prop.EmitConst},
			"Identity":            {Value: "IndyAudio", Emit: prop.EmitConst},
			"SupportedUriSchemes": {Value: []string{"file"}, Emit: prop.EmitConst},
			"SupportedMimeTypes":  {Value: supportedMimeTypes, Emit: prop.EmitConst},
		},
		mprisPlayerIface: {
			"PlaybackStatus": {Value: string(StatusStopped), Emit: prop.EmitTrue},
			"Rate":           {Value: 1.0, Emit: prop.EmitConst},
			"MinimumRate":    {Value: 1.0, Emit: prop.EmitConst},
			"MaximumRate":    {Value: 1.0, Emit: prop.EmitConst},
			"Volume":         {Value: 1.0, Emit: prop.EmitConst},
			"Metadata":       {Value: map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(noTrackPath)}, Emit: prop.EmitTrue},
			"Position":       {Value: int64(0), Emit: prop.EmitFalse},
			"CanGoNext":      {Value: false, Emit: prop.EmitConst},
			"CanGoPrevious":  {Value: false, Emit: prop.EmitConst},
			"CanPlay":        {Value: true, Emit: prop.EmitConst},
			"CanPause":       {Value: true, Emit: prop.EmitConst},
			"CanSeek":        {Value: true, Emit: prop.EmitConst},
			"CanControl":     {Value: true, Emit: prop.EmitConst},
		},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting properties: %w", err)
	}
	s.props = props

	node := &introspect.Node{
		Name: string(mprisPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       mprisRootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(mprisRootIface),
			},
			{
				Name:       mprisPlayerIface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(mprisPlayerIface),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), mprisPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting introspection: %w", err)
	}

	reply, err := conn.RequestName(mprisBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("requesting %s: %w", mprisBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s already taken", mprisBusName)
	}

	logger.Info("MPRIS registered", zap.String("name", mprisBusName))
	return s, nil
}

// currentTrack is read by SetPosition on the bus goroutine
func (s *MPRISServer) currentTrack() (id string, length float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.TrackID, s.last.Length
}

// Update publishes a new state. Signals are only emitted for changed values.
func (s *MPRISServer) Update(st remoteState) {
	if s == nil {
		return
	}
	s.mu.Lock()
	prev, had := s.last, s.hasState
	s.last, s.hasState = st, true
	s.mu.Unlock()

	if !had || prev.Status != st.Status {
		s.props.SetMust(mprisPlayerIface, "PlaybackStatus", string(st.Status))
	}
	if !had || prev.TrackID != st.TrackID || prev.Length != st.Length {
		s.props.SetMust(mprisPlayerIface, "Metadata", mprisMetadata(st))
	}
	s.props.SetMust(mprisPlayerIface, "Position", int64(st.Position*1e6))
}

// Seeked emits the Seeked signal after a position jump
func (s *MPRISServer) Seeked(position float64) {
	if s == nil {
		return
	}
	if err := s.conn.Emit(mprisPath, mprisPlayerIface+".Seeked", int64(position*1e6)); err != nil {
		s.logger.Debug("Seeked signal failed", zap.Error(err))
	}
}

// Close releases the bus name and the connection
func (s *MPRISServer) Close() error {
	if s == nil {
		return nil
	}
	if _, err := s.conn.ReleaseName(mprisBusName); err != nil {
		s.logger.Debug("Release bus name failed", zap.Error(err))
	}
	return s.conn.Close()
}

func mprisMetadata(st remoteState) map[string]dbus.Variant {
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackObjectPath(st.TrackID)),
	}
	if st.TrackID == "" {
		return md
	}
	md["mpris:length"] = dbus.MakeVariant(int64(st.Length * 1e6))
	md["xesam:title"] = dbus.MakeVariant(st.Title)
	if st.Artist != "" {
		md["xesam:artist"] = dbus.MakeVariant([]string{st.Artist})
	}
	if st.Album != "" {
		md["xesam:album"] = dbus.MakeVariant(st.Album)
	}
	return md
}

// mprisRoot implements org.mpris.MediaPlayer2
type mprisRoot struct {
	send func(tea.Msg)
}

func (r *mprisRoot) Raise() *dbus.Error { return nil }

func (r *mprisRoot) Quit() *dbus.Error {
	r.send(remoteMsg{action: remoteQuit})
	return nil
}

// mprisPlayer implements org.mpris.MediaPlayer2.Player
type mprisPlayer struct {
	send   func(tea.Msg)
	server *MPRISServer
}

// Next and Previous do nothing: there is no playlist
func (p *mprisPlayer) Next() *dbus.Error { return nil }
func (p *mprisPlayer) Previous() *dbus.Error { return nil }

func (p *mprisPlayer) Pause() *dbus.Error {
	p.send(remoteMsg{action: remotePause})
	return nil
}

func (p *mprisPlayer) PlayPause() *dbus.Error {
	p.send(remoteMsg{action: remotePlayPause})
	return nil
}

func (p *mprisPlayer) Stop() *dbus.Error {
	p.send(remoteMsg{action: remoteStop})
	return nil
}

func (p *mprisPlayer) Play() *dbus.Error {
	p.send(remoteMsg{action: remotePlay})
	return nil
}

// Seek moves by offset microseconds
func (p *mprisPlayer) Seek(offset int64) *dbus.Error {
	p.send(remoteMsg{action: remoteSeekBy, seconds: float64(offset) / 1e6})
	return nil
}

// SetPosition jumps to position microseconds if trackID is still current.
// Positions outside [0, length] are ignored as MPRIS requires.
func (p *mprisPlayer) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	current, length := p.server.currentTrack()
	if current == "" || trackID != trackObjectPath(current) {
		return nil
	}
	seconds := float64(position) / 1e6
	if seconds < 0 || seconds > length {
		return nil
	}
	p.send(remoteMsg{action: remoteSeekTo, seconds: seconds, trackID: current})
	return nil
}

func (p *mprisPlayer) OpenUri(uri string) *dbus.Error {
	path, ok := pathFromURI(uri)
	if !ok || !isAudioFile(path) {
		return dbus.MakeFailedError(fmt.Errorf("unsupported uri %q", uri))
	}
	p.send(remoteMsg{action: remoteOpen, path: path})
	return nil
}
