package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	UI struct {
		Color     string `mapstructure:"color"`
		ColorMode string `mapstructure:"color_mode"`
		MaxWidth  int    `mapstructure:"max_width"`
	} `mapstructure:"ui"`
	Artwork struct {
		Enabled      bool   `mapstructure:"enabled"`
		Padding      int    `mapstructure:"padding"`
		WidthPixels  int    `mapstructure:"width_pixels"`
		WidthColumns int    `mapstructure:"width_columns"`
		CornerRadius int    `mapstructure:"corner_radius"`
		DefaultPath  string `mapstructure:"default_path"`
	} `mapstructure:"artwork"`
	Text struct {
		MaxLengthWithArt int `mapstructure:"max_length_with_art"`
		MaxLengthNoArt   int `mapstructure:"max_length_no_art"`
	} `mapstructure:"text"`
	Timing struct {
		UIRefreshMs int `mapstructure:"ui_refresh_ms"`
	} `mapstructure:"timing"`
	Playback struct {
		Player         string   `mapstructure:"player"`
		PlayerArgs     []string `mapstructure:"player_args"`
		Prober         string   `mapstructure:"prober"`
		ProbeTimeoutMs int      `mapstructure:"probe_timeout_ms"`
		SeekStep       float64  `mapstructure:"seek_step"`
	} `mapstructure:"playback"`
	MPRIS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"mpris"`
	Log struct {
		File  string `mapstructure:"file"`
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	cfg := sc.cfg
	cfg.Playback.PlayerArgs = append([]string(nil), sc.cfg.Playback.PlayerArgs...)
	return cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

var config = &SafeConfig{}

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

// defaultConfig returns the built-in defaults, used both for viper and for
// repairing invalid fields
func defaultConfig() Config {
	var cfg Config
	cfg.UI.Color = "2"
	cfg.UI.ColorMode = "auto"
	cfg.UI.MaxWidth = 45
	cfg.Artwork.Enabled = true
	cfg.Artwork.Padding = 16
	cfg.Artwork.WidthPixels = 300
	cfg.Artwork.WidthColumns = 13
	cfg.Artwork.CornerRadius = 16
	cfg.Text.MaxLengthWithArt = 22
	cfg.Text.MaxLengthNoArt = 36
	cfg.Timing.UIRefreshMs = 200
	cfg.Playback.Player = "ffplay"
	cfg.Playback.PlayerArgs = append([]string(nil), defaultPlayerArgs...)
	cfg.Playback.Prober = "ffprobe"
	cfg.Playback.ProbeTimeoutMs = 5000
	cfg.Playback.SeekStep = 5
	cfg.MPRIS.Enabled = true
	cfg.Log.File = defaultLogPath()
	cfg.Log.Level = "info"
	return cfg
}

// defaultLogPath places the log under the user cache dir; the terminal is
// owned by the UI
func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "indyaudio", "indyaudio.log")
}

// configError describes one invalid configuration field
type configError struct {
	field   string
	message string
}

func (e configError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

// isValidColor accepts ANSI codes 0-255 and hex colors (#RGB or #RRGGBB)
func isValidColor(color string) bool {
	if color == "" {
		return false
	}
	if color[0] == '#' {
		hex := color[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return false
		}
		for _, c := range hex {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
				return false
			}
		}
		return true
	}
	for _, c := range color {
		if c < '0' || c > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(color)
	return err == nil && n >= 0 && n <= 255
}

// validateConfig returns one error per invalid field
func validateConfig(cfg *Config) []error {
	var errs []error
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, configError{field: field, message: fmt.Sprintf(format, args...)})
	}

	if cfg.UI.MaxWidth < 20 || cfg.UI.MaxWidth > 200 {
		add("ui.max_width", "must be between 20 and 200 (got %d)", cfg.UI.MaxWidth)
	}
	if !isValidColor(cfg.UI.Color) {
		add("ui.color", "invalid color format '%s'", cfg.UI.Color)
	}
	if cfg.UI.ColorMode != "manual" && cfg.UI.ColorMode != "auto" {
		add("ui.color_mode", "must be 'manual' or 'auto' (got '%s')", cfg.UI.ColorMode)
	}

	if cfg.Artwork.Padding < 0 || cfg.Artwork.Padding >= cfg.UI.MaxWidth {
		add("artwork.padding", "must be between 0 and max_width (got %d)", cfg.Artwork.Padding)
	}
	if cfg.Artwork.WidthPixels < 16 || cfg.Artwork.WidthPixels > 2000 {
		add("artwork.width_pixels", "must be between 16 and 2000 (got %d)", cfg.Artwork.WidthPixels)
	}
	if cfg.Artwork.WidthColumns < 1 || cfg.Artwork.WidthColumns > 100 {
		add("artwork.width_columns", "must be between 1 and 100 (got %d)", cfg.Artwork.WidthColumns)
	}
	if cfg.Artwork.CornerRadius < 0 || cfg.Artwork.CornerRadius*2 > cfg.Artwork.WidthPixels {
		add("artwork.corner_radius", "must be between 0 and half of width_pixels (got %d)", cfg.Artwork.CornerRadius)
	}

	if cfg.Text.MaxLengthWithArt < 1 || cfg.Text.MaxLengthWithArt > 200 {
		add("text.max_length_with_art", "must be between 1 and 200 (got %d)", cfg.Text.MaxLengthWithArt)
	}
	if cfg.Text.MaxLengthNoArt < 1 || cfg.Text.MaxLengthNoArt > 200 {
		add("text.max_length_no_art", "must be between 1 and 200 (got %d)", cfg.Text.MaxLengthNoArt)
	}

	if cfg.Timing.UIRefreshMs < 10 || cfg.Timing.UIRefreshMs > 5000 {
		add("timing.ui_refresh_ms", "must be between 10 and 5000 (got %d)", cfg.Timing.UIRefreshMs)
	}

	if strings.TrimSpace(cfg.Playback.Player) == "" {
		add("playback.player", "must not be empty")
	}
	if cfg.Playback.ProbeTimeoutMs < 0 || cfg.Playback.ProbeTimeoutMs > 60000 {
		add("playback.probe_timeout_ms", "must be between 0 and 60000 (got %d)", cfg.Playback.ProbeTimeoutMs)
	}
	if cfg.Playback.SeekStep <= 0 || cfg.Playback.SeekStep > 600 {
		add("playback.seek_step", "must be between 0 and 600 seconds (got %g)", cfg.Playback.SeekStep)
	}

	if _, err := zap.ParseAtomicLevel(cfg.Log.Level); err != nil {
		add("log.level", "unknown level '%s'", cfg.Log.Level)
	}

	return errs
}

// applyDefaultsForInvalidFields replaces every field named in errs with its default
func applyDefaultsForInvalidFields(cfg *Config, errs []error) {
	def := defaultConfig()
	for _, err := range errs {
		ce, ok := err.(configError)
		if !ok {
			continue
		}
		switch ce.field {
		case "ui.max_width":
			cfg.UI.MaxWidth = def.UI.MaxWidth
		case "ui.color":
			cfg.UI.Color = def.UI.Color
		case "ui.color_mode":
			cfg.UI.ColorMode = def.UI.ColorMode
		case "artwork.padding":
			cfg.Artwork.Padding = def.Artwork.Padding
		case "artwork.width_pixels":
			cfg.Artwork.WidthPixels = def.Artwork.WidthPixels
		case "artwork.width_columns":
			cfg.Artwork.WidthColumns = def.Artwork.WidthColumns
		case "artwork.corner_radius":
			cfg.Artwork.CornerRadius = def.Artwork.CornerRadius
		case "text.max_length_with_art":
			cfg.Text.MaxLengthWithArt = def.Text.MaxLengthWithArt
		case "text.max_length_no_art":
			cfg.Text.MaxLengthNoArt = def.Text.MaxLengthNoArt
		case "timing.ui_refresh_ms":
			cfg.Timing.UIRefreshMs = def.Timing.UIRefreshMs
		case "playback.player":
			cfg.Playback.Player = def.Playback.Player
		case "playback.probe_timeout_ms":
			cfg.Playback.ProbeTimeoutMs = def.Playback.ProbeTimeoutMs
		case "playback.seek_step":
			cfg.Playback.SeekStep = def.Playback.SeekStep
		case "log.level":
			cfg.Log.Level = def.Log.Level
		}
	}

	// A repaired width can invalidate the radius and padding that depended on it
	if cfg.Artwork.CornerRadius*2 > cfg.Artwork.WidthPixels {
		cfg.Artwork.CornerRadius = cfg.Artwork.WidthPixels / 2
	}
	if cfg.Artwork.Padding >= cfg.UI.MaxWidth {
		cfg.Artwork.Padding = def.Artwork.Padding
	}
}

func printConfigWarnings(errs []error) {
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: invalid config %v, using default\n", err)
	}
}

// loadConfig unmarshals viper state into a validated Config
func loadConfig() (Config, []error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return defaultConfig(), []error{fmt.Errorf("parsing config: %w", err)}
	}
	errs := validateConfig(&cfg)
	applyDefaultsForInvalidFields(&cfg, errs)
	return cfg, errs
}

// registerFlags declares the command-line flags; config keys they map to
// are bound in initConfig
func registerFlags(flags *pflag.FlagSet) {
	flags.StringP("color", "c", "2", "Set the accent color (ANSI code or hex)")
	flags.Bool("no-artwork", false, "Disable album artwork display")
	flags.Bool("no-mpris", false, "Do not register on the session bus for media keys")
	flags.String("config", "", "Path to a config file")
	flags.String("log-file", "", "Write logs to this file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("ffplay", "ffplay", "Player binary")
	flags.String("ffprobe", "ffprobe", "Duration prober binary")
}

func initConfig(flags *pflag.FlagSet) {
	def := defaultConfig()
	viper.SetDefault("ui.color", def.UI.Color)
	viper.SetDefault("ui.color_mode", def.UI.ColorMode)
	viper.SetDefault("ui.max_width", def.UI.MaxWidth)
	viper.SetDefault("artwork.enabled", def.Artwork.Enabled)
	viper.SetDefault("artwork.padding", def.Artwork.Padding)
	viper.SetDefault("artwork.width_pixels", def.Artwork.WidthPixels)
	viper.SetDefault("artwork.width_columns", def.Artwork.WidthColumns)
	viper.SetDefault("artwork.corner_radius", def.Artwork.CornerRadius)
	viper.SetDefault("artwork.default_path", def.Artwork.DefaultPath)
	viper.SetDefault("text.max_length_with_art", def.Text.MaxLengthWithArt)
	viper.SetDefault("text.max_length_no_art", def.Text.MaxLengthNoArt)
	viper.SetDefault("timing.ui_refresh_ms", def.Timing.UIRefreshMs)
	viper.SetDefault("playback.player", def.Playback.Player)
	viper.SetDefault("playback.player_args", def.Playback.PlayerArgs)
	viper.SetDefault("playback.prober", def.Playback.Prober)
	viper.SetDefault("playback.probe_timeout_ms", def.Playback.ProbeTimeoutMs)
	viper.SetDefault("playback.seek_step", def.Playback.SeekStep)
	viper.SetDefault("mpris.enabled", def.MPRIS.Enabled)
	viper.SetDefault("log.file", def.Log.File)
	viper.SetDefault("log.level", def.Log.Level)

	// Set config file location following XDG standard
	if path, _ := flags.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Check XDG_CONFIG_HOME first, fallback to ~/.config
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				configHome = filepath.Join(homeDir, ".config")
			}
		}

		if configHome != "" {
			viper.AddConfigPath(filepath.Join(configHome, "indyaudio"))
		}
	}

	// Environment variable support with INDYAUDIO_ prefix
	viper.SetEnvPrefix("INDYAUDIO")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file found but had errors
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	// Command-line flags take precedence, but only when explicitly set
	bind := map[string]string{
		"ui.color":        "color",
		"log.file":        "log-file",
		"log.level":       "log-level",
		"playback.player": "ffplay",
		"playback.prober": "ffprobe",
	}
	for key, name := range bind {
		if f := flags.Lookup(name); f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}
	if noArt, _ := flags.GetBool("no-artwork"); noArt {
		viper.Set("artwork.enabled", false)
	}
	if noMPRIS, _ := flags.GetBool("no-mpris"); noMPRIS {
		viper.Set("mpris.enabled", false)
	}

	cfg, errs := loadConfig()
	printConfigWarnings(errs)
	config.Set(cfg)

	// Watch for config file changes and live reload
	viper.OnConfigChange(func(e fsnotify.Event) {
		// Invalid fields fall back to defaults; stderr belongs to the UI now
		newCfg, _ := loadConfig()
		config.Set(newCfg)
		// Config reloaded, notify the app
		select {
		case configChangeChan <- struct{}{}:
		default:
			// Channel full, skip notification
		}
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}
}
