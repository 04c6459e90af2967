// Package ytdlp wraps the yt-dlp command line tool for metadata probing
// and audio extraction.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"tuneclip/internal/core"
)

// Search prefixes understood by yt-dlp for site-scoped searches.
const (
	SearchPrefixSoundCloud = "scsearch1:"
	SearchPrefixYouTube    = "ytsearch1:"
)

// ExtractorArgsYouTubeAndroid forces the Android player client, which
// avoids throttled and signature-gated formats on YouTube.
const ExtractorArgsYouTubeAndroid = "youtube:player_client=android"

// Options adjust a single yt-dlp invocation.
type Options struct {
	// CookieFile is passed via --cookies when set.
	CookieFile string
	// ExtractorArgs is passed via --extractor-args when set.
	ExtractorArgs string
}

// Runner invokes yt-dlp as a subprocess.
type Runner struct {
	cfg    core.YtDlpConfig
	arl    string
	logger *zap.Logger
}

// NewRunner creates a Runner from the yt-dlp configuration.
func NewRunner(cfg core.YtDlpConfig, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger,
	}
}

// SetDeezerARL configures the session cookie injected when a direct
// Deezer URL is probed or downloaded.
func (r *Runner) SetDeezerARL(arl string) {
	r.arl = arl
}

// probeOutput is the subset of the yt-dlp JSON dump we consume.
type probeOutput struct {
	Title      string  `json:"title"`
	WebpageURL string  `json:"webpage_url"`
	URL        string  `json:"url"`
	Duration   float64 `json:"duration"`
	Extractor  string  `json:"extractor"`
}

// Probe fetches metadata for a target (a URL or a "<prefix>search1:"
// query) without downloading. A failed or unparseable invocation returns
// (nil, nil): probe failures mean "no result", not an error.
func (r *Runner) Probe(ctx context.Context, target string, opts Options) (*core.TrackMeta, error) {
	args := []string{
		"--dump-json",
		"--no-download",
		"--no-playlist",
		"--no-check-certificates",
		"--user-agent", r.cfg.UserAgent,
	}
	args = r.appendCommonArgs(args, opts)
	args = append(args, target)

	cmd := exec.CommandContext(ctx, r.cfg.Path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("yt-dlp probe failed",
			zap.String("target", target),
			zap.Error(err),
			zap.String("stderr", truncate(stderr.String(), 500)))
		return nil, nil
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		r.logger.Warn("yt-dlp returned unparseable JSON",
			zap.String("target", target),
			zap.Error(err))
		return nil, nil
	}

	playableURL := out.WebpageURL
	if playableURL == "" {
		playableURL = out.URL
	}
	if out.Title == "" || playableURL == "" {
		r.logger.Warn("yt-dlp probe returned incomplete metadata",
			zap.String("target", target))
		return nil, nil
	}

	return &core.TrackMeta{
		Title:     out.Title,
		URL:       playableURL,
		Duration:  time.Duration(out.Duration * float64(time.Second)),
		Extractor: out.Extractor,
	}, nil
}

// DownloadAudio downloads the target and extracts an mp3 to outputPath.
func (r *Runner) DownloadAudio(ctx context.Context, target, outputPath string, opts Options) error {
	args := []string{
		"--no-playlist",
		"--no-check-certificates",
		"--user-agent", r.cfg.UserAgent,
		"--extract-audio",
		"--audio-format", "mp3",
		"--output", outputPath,
		"--ffmpeg-location", r.cfg.FfmpegPath,
	}
	args = r.appendCommonArgs(args, opts)
	args = append(args, target)

	cmd := exec.CommandContext(ctx, r.cfg.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &DownloadError{
			Target: target,
			Stderr: truncate(stderr.String(), 500),
			Err:    err,
		}
	}

	return nil
}

// appendCommonArgs adds proxy and per-invocation options shared by probe
// and download.
func (r *Runner) appendCommonArgs(args []string, opts Options) []string {
	if proxy := r.pickProxy(); proxy != "" {
		args = append(args, "--proxy", proxy)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if opts.ExtractorArgs != "" {
		args = append(args, "--extractor-args", opts.ExtractorArgs)
	}

	return args
}

// pickProxy selects one proxy at random from the configured list.
func (r *Runner) pickProxy() string {
	if r.cfg.Proxies == "" {
		return ""
	}

	proxies := strings.Split(r.cfg.Proxies, ",")
	proxy := strings.TrimSpace(proxies[rand.Intn(len(proxies))])

	return proxy
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// DownloadError carries the subprocess failure details for a download.
type DownloadError struct {
	Target string
	Stderr string
	Err    error
}

func (e *DownloadError) Error() string {
	return "yt-dlp download failed for " + e.Target + ": " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
