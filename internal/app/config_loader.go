package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/youtubify-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.youtubify")
		v.AddConfigPath("/etc/youtubify")
	}

	// YOUTUBIFY_DOWNLOAD_MAX_CONCURRENT overrides download.max_concurrent, etc.
	v.SetEnvPrefix("YOUTUBIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every known key so AutomaticEnv applies on Unmarshal
// even when no config file mentions the key.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.host", "server.port",
		"download.default_destination", "download.max_concurrent", "download.subtitle_languages",
		"download.history_limit", "download.probe_by_default",
		"engine.ytdlp_binary", "engine.cookie_file", "engine.logs_dir", "engine.probe_timeout",
		"store.driver", "store.dsn",
		"event_bus.capacity",
		"notification.enabled", "notification.method",
		"logging.level", "logging.format", "logging.output_path",
	} {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.DefaultDestination = expandPath(config.Download.DefaultDestination)
	config.Engine.CookieFile = expandPath(config.Engine.CookieFile)
	config.Engine.LogsDir = expandPath(config.Engine.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent cannot be negative")
	}

	if config.Download.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be at least 1")
	}

	if config.EventBus.Capacity < 1 {
		return fmt.Errorf("event bus capacity must be at least 1")
	}

	if config.Engine.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	switch config.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver: %q", config.Store.Driver)
	}

	if config.Store.DSN == "" {
		return fmt.Errorf("store dsn not configured")
	}

	if len(config.Download.SubtitleLanguages) == 0 {
		config.Download.SubtitleLanguages = append([]string(nil), domain.DefaultSubtitleLanguages...)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
