// Package main provides the TuneClip CLI application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tuneclip/internal/chat/telegram"
	"tuneclip/internal/core"
	"tuneclip/internal/cover"
	"tuneclip/internal/guard"
	httpserver "tuneclip/internal/http"
	"tuneclip/internal/media"
	"tuneclip/internal/resolve"
	"tuneclip/internal/store"
	"tuneclip/internal/ytdlp"
	"tuneclip/pkg/linkmeta"
	"tuneclip/pkg/text"
)

const (
	defaultServerHost = "0.0.0.0"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tuneclip",
	Short: "TuneClip - Chat song requests → cover-art videos",
	Long: `TuneClip is a service that listens to Telegram chat messages, resolves
requested songs (free text, streaming-platform links or direct YouTube URLs)
to a downloadable audio source, and replies with a cover-art video clip.`,
	RunE: runTuneClip,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().String("telegram-allowed-chats", "", "Comma-separated chat IDs allowed to use the bot (empty allows all)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID for cover art lookup")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret for cover art lookup")
	rootCmd.PersistentFlags().String("deezer-arl", "", "Deezer ARL session cookie")
	rootCmd.PersistentFlags().String("ytdlp-path", "yt-dlp", "Path to the yt-dlp binary")
	rootCmd.PersistentFlags().String("ffmpeg-path", "ffmpeg", "Path to the ffmpeg binary")
	rootCmd.PersistentFlags().String("proxies", "", "Comma-separated proxy URLs for yt-dlp")
	rootCmd.PersistentFlags().String("work-dir", "/tmp/tuneclip", "Directory for temporary media files")
	rootCmd.PersistentFlags().String("placeholder-url", "", "Fallback cover image URL")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Int("request-timeout-secs", 600, "Per-request processing timeout in seconds")
	rootCmd.PersistentFlags().Int("rate-limit", 5, "Maximum requests per user per rate window")
	rootCmd.PersistentFlags().Int("rate-window-secs", 60, "Rate limit window in seconds")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		// Don't exit if .env file doesn't exist, just warn
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("TUNECLIP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureTelegram(cfg)
	configureSpotify(cfg)
	configureDeezer(cfg)
	configureYtDlp(cfg)
	configureMedia(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureTelegram(cfg *core.Config) {
	cfg.Telegram.Token = viper.GetString("telegram-bot-token")

	allowed := viper.GetString("telegram-allowed-chats")
	if allowed != "" {
		cfg.Telegram.AllowedChats = strings.Split(allowed, ",")
	}
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
}

func configureDeezer(cfg *core.Config) {
	cfg.Deezer.ARL = viper.GetString("deezer-arl")
}

func configureYtDlp(cfg *core.Config) {
	if path := viper.GetString("ytdlp-path"); path != "" {
		cfg.YtDlp.Path = path
	}
	if path := viper.GetString("ffmpeg-path"); path != "" {
		cfg.YtDlp.FfmpegPath = path
	}
	cfg.YtDlp.Proxies = viper.GetString("proxies")
}

func configureMedia(cfg *core.Config) {
	if dir := viper.GetString("work-dir"); dir != "" {
		cfg.Media.WorkDir = dir
	}
	if placeholder := viper.GetString("placeholder-url"); placeholder != "" {
		cfg.Media.PlaceholderURL = placeholder
	}
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	if timeout := viper.GetInt("request-timeout-secs"); timeout > 0 {
		cfg.App.RequestTimeoutSecs = timeout
	}
	if limit := viper.GetInt("rate-limit"); limit > 0 {
		cfg.App.RateLimit = limit
	}
	if window := viper.GetInt("rate-window-secs"); window > 0 {
		cfg.App.RateWindowSecs = window
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTuneClip(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting TuneClip",
		zap.String("work_dir", config.Media.WorkDir),
		zap.Bool("deezer_enabled", config.Deezer.ARL != ""),
		zap.Bool("spotify_covers_enabled", config.Spotify.ClientID != ""))

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	services, err := initializeServices()
	if err != nil {
		return err
	}

	return runServices(ctx, services)
}

type services struct {
	frontend     *telegram.Frontend
	httpServer   *httpserver.Server
	orchestrator *core.Orchestrator
}

func initializeServices() (*services, error) {
	dedup := store.NewDedupStore(10000, 0.001)
	requestGuard := guard.New(config.App.RateLimit,
		time.Duration(config.App.RateWindowSecs)*time.Second)

	frontend, err := createChatFrontend()
	if err != nil {
		return nil, err
	}

	runner := ytdlp.NewRunner(config.YtDlp, logger.Named("ytdlp"))
	runner.SetDeezerARL(config.Deezer.ARL)

	httpClient := &http.Client{Timeout: 15 * time.Second}

	pipeline := resolve.NewPipeline(logger.Named("resolve"),
		resolve.NewDeezerSource(config.Deezer.ARL, httpClient, runner, logger.Named("deezer")),
		resolve.NewSoundCloudSource(runner, logger.Named("soundcloud")),
		resolve.NewYouTubeSource(runner, logger.Named("youtube")),
		resolve.NewArchiveSource(httpClient, runner, logger.Named("archive")),
	)

	covers := createCoverResolver(httpClient)

	muxer := media.NewMuxer(config.Media, config.YtDlp.FfmpegPath, logger.Named("media"))
	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	orchestrator := core.NewOrchestrator(config, frontend, text.NewParser(),
		linkmeta.NewClient(), pipeline, covers, runner, muxer,
		requestGuard, dedup, httpServer, logger.Named("orchestrator"))

	return &services{
		frontend:     frontend,
		httpServer:   httpServer,
		orchestrator: orchestrator,
	}, nil
}

func createChatFrontend() (*telegram.Frontend, error) {
	allowedChats := make(map[int64]bool, len(config.Telegram.AllowedChats))
	for _, raw := range config.Telegram.AllowedChats {
		chatID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID %q in allowed chats: %w", raw, err)
		}
		allowedChats[chatID] = true
	}

	telegramConfig := &telegram.Config{
		BotToken:     config.Telegram.Token,
		AllowedChats: allowedChats,
	}
	frontend := telegram.NewFrontend(telegramConfig, logger.Named("telegram"))
	logger.Info("Using Telegram as chat frontend",
		zap.Int("allowed_chats", len(allowedChats)))
	return frontend, nil
}

func createCoverResolver(httpClient *http.Client) *cover.Resolver {
	tiers := make([]cover.Tier, 0, 2)
	if config.Spotify.ClientID != "" && config.Spotify.ClientSecret != "" {
		tiers = append(tiers, cover.NewSpotifySource(config.Spotify.ClientID, config.Spotify.ClientSecret))
	} else {
		logger.Info("Spotify credentials not set, skipping Spotify cover source")
	}
	tiers = append(tiers, cover.NewDeezerSource(httpClient))

	return cover.NewResolver(config.Media.PlaceholderURL, logger.Named("cover"), tiers...)
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return svcs.orchestrator.Start(gCtx)
	})

	logger.Info("TuneClip started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("TuneClip stopped with error", zap.Error(err))
		// Still call Stop to send the shutdown notice
		if stopErr := svcs.orchestrator.Stop(context.Background()); stopErr != nil {
			logger.Debug("Failed to stop orchestrator gracefully", zap.Error(stopErr))
		}
		return err
	}

	if err := svcs.orchestrator.Stop(context.Background()); err != nil {
		logger.Debug("Failed to stop orchestrator gracefully", zap.Error(err))
	}

	logger.Info("TuneClip stopped gracefully")
	return nil
}
