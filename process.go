package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// stopTimeout is how long Stop waits for the player to exit after SIGTERM
const stopTimeout = 500 * time.Millisecond

// defaultPlayerArgs plays a file without a window and exits at the end.
// {start} and {file} are substituted at launch time.
var defaultPlayerArgs = []string{
	"-nodisp", "-autoexit", "-hide_banner", "-loglevel", "quiet",
	"-ss", "{start}", "{file}",
}

// ProcessController launches the external player (ffplay by default)
type ProcessController struct {
	logger *zap.Logger
	// settings returns the binary and argument template for the next launch
	settings func() (binary string, args []string)
}

// NewProcessController creates a controller for a fixed binary and argument template
func NewProcessController(logger *zap.Logger, binary string, args []string) *ProcessController {
	return &ProcessController{
		logger:   logger,
		settings: func() (string, []string) { return binary, args },
	}
}

// NewConfiguredProcessController reads playback.player and
// playback.player_args on every launch, so a reloaded config applies to
// the next play or seek
func NewConfiguredProcessController(logger *zap.Logger) *ProcessController {
	return &ProcessController{
		logger: logger,
		settings: func() (string, []string) {
			cfg := config.Get()
			return cfg.Playback.Player, cfg.Playback.PlayerArgs
		},
	}
}

// buildArgs substitutes the placeholders in an argument template. An empty
// template means defaultPlayerArgs.
func buildArgs(template []string, path string, start float64) []string {
	if len(template) == 0 {
		template = defaultPlayerArgs
	}
	startStr := strconv.FormatFloat(start, 'f', 3, 64)
	args := make([]string, len(template))
	for i, arg := range template {
		arg = strings.ReplaceAll(arg, "{start}", startStr)
		arg = strings.ReplaceAll(arg, "{file}", path)
		args[i] = arg
	}
	return args
}

// Launch implements Launcher
func (c *ProcessController) Launch(path string, start float64) (PlaybackProcess, error) {
	binary, template := c.settings()
	if binary == "" {
		return nil, errors.New("no player configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("player %q not found: %w", binary, err)
	}

	args := buildArgs(template, path, start)
	cmd := exec.Command(binary, args...)
	// Output is discarded: nil Stdout/Stderr go to the null device
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	c.logger.Debug("Player started",
		zap.String("binary", binary),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid))

	p := &process{
		cmd:    cmd,
		done:   make(chan struct{}),
		logger: c.logger,
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// process tracks one child started by ProcessController
type process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error // Valid once done is closed
	logger  *zap.Logger
}

func (p *process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the exit status of a player that has exited, nil while running
func (p *process) ExitErr() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Stop terminates the player and its process group
func (p *process) Stop() error {
	if !p.Running() {
		return nil
	}
	pid := p.cmd.Process.Pid
	if err := terminateGroup(pid); err != nil {
		// Group signalling failed, terminate the process alone
		if err := terminateProcess(p.cmd.Process); err != nil {
			p.logger.Debug("Terminate failed", zap.Int("pid", pid), zap.Error(err))
		}
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(stopTimeout):
	}

	p.logger.Warn("Player ignored SIGTERM, killing", zap.Int("pid", pid))
	if err := killGroup(pid); err != nil {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill player %d: %w", pid, err)
		}
	}
	<-p.done
	return nil
}
