package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved client configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Audio    AudioConfig    `mapstructure:"audio" yaml:"audio"`
	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
}

type ServerConfig struct {
	URL       string `mapstructure:"url" yaml:"url"`               // e.g. http://localhost:8000
	APIPrefix string `mapstructure:"api_prefix" yaml:"api_prefix"` // prepended to every endpoint path
}

type AudioConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // "auto", "ffmpeg", "pipewire", "alsa"
	Device     string `mapstructure:"device" yaml:"device"`   // capture device, backend specific; empty means default
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
}

type PlaybackConfig struct {
	Player string `mapstructure:"player" yaml:"player"` // "auto", "ffplay", "mpv", "vlc"
}

type UIConfig struct {
	Notifications bool `mapstructure:"notifications" yaml:"notifications"`
}

type LogConfig struct {
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

var (
	supportedBackends = []string{"auto", "ffmpeg", "pipewire", "alsa"}
	supportedPlayers  = []string{"auto", "ffplay", "mpv", "vlc"}
)

var defaultConfig = Config{
	Server: ServerConfig{
		URL:       "http://localhost:8000",
		APIPrefix: "/api",
	},
	Audio: AudioConfig{
		Backend:    "auto",
		SampleRate: 16000,
		Channels:   1,
	},
	Playback: PlaybackConfig{
		Player: "auto",
	},
	UI: UIConfig{
		Notifications: true,
	},
	Log: LogConfig{
		File:       filepath.Join("~", ".local", "state", "walkie-talkie", "walkie-talkie.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	},
	Store: StoreConfig{
		Path: filepath.Join("~", ".local", "share", "walkie-talkie", "walkie-talkie.sqlite"),
	},
}

// Default returns a copy of the built-in configuration with paths expanded.
func Default() *Config {
	cfg := defaultConfig
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Store.Path = expandPath(cfg.Store.Path)
	return &cfg
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/walkie-talkie.yaml")
}

// Load reads configFile on top of the defaults. A missing file is not an
// error; the defaults (plus WALKIE_* environment overrides) are used.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix("WALKIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(cfg.Server.URL), "/")
	cfg.Server.APIPrefix = normalizePrefix(cfg.Server.APIPrefix)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Store.Path = expandPath(cfg.Store.Path)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default so env overrides work without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", defaultConfig.Server.URL)
	v.SetDefault("server.api_prefix", defaultConfig.Server.APIPrefix)
	v.SetDefault("audio.backend", defaultConfig.Audio.Backend)
	v.SetDefault("audio.device", defaultConfig.Audio.Device)
	v.SetDefault("audio.sample_rate", defaultConfig.Audio.SampleRate)
	v.SetDefault("audio.channels", defaultConfig.Audio.Channels)
	v.SetDefault("playback.player", defaultConfig.Playback.Player)
	v.SetDefault("ui.notifications", defaultConfig.UI.Notifications)
	v.SetDefault("log.file", defaultConfig.Log.File)
	v.SetDefault("log.max_size", defaultConfig.Log.MaxSize)
	v.SetDefault("log.max_backups", defaultConfig.Log.MaxBackups)
	v.SetDefault("log.max_age", defaultConfig.Log.MaxAge)
	v.SetDefault("log.compress", defaultConfig.Log.Compress)
	v.SetDefault("store.path", defaultConfig.Store.Path)
}

// Validate checks a resolved configuration.
func Validate(cfg *Config) error {
	if cfg.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if !strings.HasPrefix(cfg.Server.URL, "http://") && !strings.HasPrefix(cfg.Server.URL, "https://") {
		return fmt.Errorf("server.url must start with http:// or https://, got: %s", cfg.Server.URL)
	}

	if !contains(supportedBackends, strings.ToLower(cfg.Audio.Backend)) {
		return fmt.Errorf("audio.backend must be one of %s, got: %s", strings.Join(supportedBackends, ", "), cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got: %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got: %d", cfg.Audio.Channels)
	}

	if !contains(supportedPlayers, strings.ToLower(cfg.Playback.Player)) {
		return fmt.Errorf("playback.player must be one of %s, got: %s", strings.Join(supportedPlayers, ", "), cfg.Playback.Player)
	}

	if cfg.Log.MaxSize < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAge < 0 {
		return fmt.Errorf("log rotation limits must be >= 0")
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	return nil
}

// APIBaseURL is the server URL joined with the API prefix.
func (c *Config) APIBaseURL() string {
	return c.Server.URL + c.Server.APIPrefix
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
