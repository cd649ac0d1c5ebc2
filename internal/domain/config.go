package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Store        StoreConfig        `mapstructure:"store"`
	EventBus     EventBusConfig     `mapstructure:"event_bus"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains job orchestration settings
type DownloadConfig struct {
	DefaultDestination string   `mapstructure:"default_destination"`
	MaxConcurrent      int      `mapstructure:"max_concurrent"` // 0 = unbounded
	SubtitleLanguages  []string `mapstructure:"subtitle_languages"`
	HistoryLimit       int      `mapstructure:"history_limit"`
	ProbeByDefault     bool     `mapstructure:"probe_by_default"`
}

// EngineConfig contains yt-dlp settings
type EngineConfig struct {
	YTDLPBinary  string        `mapstructure:"ytdlp_binary"`
	CookieFile   string        `mapstructure:"cookie_file"`
	LogsDir      string        `mapstructure:"logs_dir"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// StoreConfig contains job record storage settings
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// EventBusConfig contains log sink settings
type EventBusConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			DefaultDestination: "$HOME/Downloads/youtubify",
			MaxConcurrent:      0,
			SubtitleLanguages:  []string{"en"},
			HistoryLimit:       512,
			ProbeByDefault:     false,
		},
		Engine: EngineConfig{
			YTDLPBinary:  "yt-dlp",
			CookieFile:   "",
			LogsDir:      "",
			ProbeTimeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
		EventBus: EventBusConfig{
			Capacity: 1000,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
