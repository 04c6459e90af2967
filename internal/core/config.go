package core

import (
	"fmt"
	"time"
)

type Config struct {
	Telegram TelegramConfig
	Spotify  SpotifyConfig
	Deezer   DeezerConfig
	YtDlp    YtDlpConfig
	Media    MediaConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type TelegramConfig struct {
	Token        string
	AllowedChats []string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type DeezerConfig struct {
	ARL string
}

type YtDlpConfig struct {
	Path       string
	FfmpegPath string
	Proxies    string
	UserAgent  string
}

type MediaConfig struct {
	WorkDir        string
	PlaceholderURL string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	RequestTimeoutSecs int
	RateWindowSecs     int
	RateLimit          int
}

func DefaultConfig() *Config {
	return &Config{
		YtDlp: YtDlpConfig{
			Path:       "yt-dlp",
			FfmpegPath: "ffmpeg",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Media: MediaConfig{
			WorkDir:        "/tmp/tuneclip",
			PlaceholderURL: "https://archive.org/download/placeholder-image/placeholder-image.jpg",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			RequestTimeoutSecs: 600,
			RateWindowSecs:     60,
			RateLimit:          5,
		},
	}
}

// Validate checks that all required settings are present.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if c.YtDlp.Path == "" {
		return fmt.Errorf("yt-dlp path is required")
	}
	if c.YtDlp.FfmpegPath == "" {
		return fmt.Errorf("ffmpeg path is required")
	}
	if c.Media.WorkDir == "" {
		return fmt.Errorf("media work dir is required")
	}
	return nil
}
