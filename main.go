package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	flags := pflag.NewFlagSet("indyaudio", pflag.ExitOnError)
	registerFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: indyaudio [flags] [file]\n\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	initConfig(flags)
	cfg := config.Get()

	logger := newLogger(cfg)
	defer logger.Sync()

	// A path from the desktop file or command line is loaded only if it exists
	var initialPath string
	if args := flags.Args(); len(args) > 0 {
		if _, err := os.Stat(args[0]); err == nil {
			initialPath = args[0]
		} else {
			logger.Warn("Ignoring missing file argument", zap.String("path", args[0]), zap.Error(err))
		}
	}

	// Both read the playback section per call, so live config edits apply
	launcher := NewConfiguredProcessController(logger)
	prober := NewConfiguredFFProbe(logger)
	player := NewPlayer(logger, launcher, nil)
	defer player.Close()

	// Bus calls can arrive before the program exists
	var program atomic.Pointer[tea.Program]
	send := func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}

	var remote *MPRISServer
	if cfg.MPRIS.Enabled {
		var err error
		if remote, err = startMPRIS(logger, send); err != nil {
			logger.Info("Media key integration disabled", zap.Error(err))
		}
	}

	supportsKitty := supportsKittyGraphics() && term.IsTerminal(int(os.Stdout.Fd()))

	logger.Info("Starting",
		zap.String("player", cfg.Playback.Player),
		zap.String("prober", cfg.Playback.Prober),
		zap.Bool("kitty", supportsKitty),
		zap.Bool("mpris", remote != nil))

	m := newModel(logger, player, prober, remote, supportsKitty, initialPath)
	p := tea.NewProgram(m, tea.WithAltScreen())
	program.Store(p)

	_, err := p.Run()
	if remote != nil {
		remote.Close()
	}
	if err != nil {
		logger.Error("UI exited with error", zap.Error(err))
		player.Close()
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
