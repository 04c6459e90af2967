package ytdlp

import (
	"context"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"tuneclip/internal/core"
)

// WriteDeezerCookieFile writes the ARL as a single Netscape-format cookie
// line in a temporary file. The caller must remove the file.
func WriteDeezerCookieFile(arl string) (string, error) {
	f, err := os.CreateTemp("", "deezer-cookies-*.txt")
	if err != nil {
		return "", err
	}

	content := "# Netscape HTTP Cookie File\n" +
		".deezer.com\tTRUE\t/\tTRUE\t2147483647\tarl\t" + arl + "\n"

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// ProbeDirect probes a direct URL, applying the same site-specific
// workarounds the search tiers use.
func (r *Runner) ProbeDirect(ctx context.Context, target string) (*core.TrackMeta, error) {
	opts, cleanup, err := r.optionsFor(target)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.Probe(ctx, target, opts)
}

// Download extracts audio from a resolved URL into outputPath.
func (r *Runner) Download(ctx context.Context, target, outputPath string) error {
	opts, cleanup, err := r.optionsFor(target)
	if err != nil {
		return err
	}
	defer cleanup()

	return r.DownloadAudio(ctx, target, outputPath, opts)
}

// optionsFor selects per-site invocation options: the Android player
// client for YouTube and the ARL session cookie for Deezer. The returned
// cleanup removes any temp cookie file and must always be called.
func (r *Runner) optionsFor(target string) (Options, func(), error) {
	noop := func() {}

	switch {
	case isYouTubeHost(target):
		return Options{ExtractorArgs: ExtractorArgsYouTubeAndroid}, noop, nil
	case isDeezerHost(target) && r.arl != "":
		cookieFile, err := WriteDeezerCookieFile(r.arl)
		if err != nil {
			return Options{}, noop, err
		}
		cleanup := func() {
			if removeErr := os.Remove(cookieFile); removeErr != nil {
				r.logger.Warn("Failed to remove deezer cookie file",
					zap.String("path", cookieFile),
					zap.Error(removeErr))
			}
		}
		return Options{CookieFile: cookieFile}, cleanup, nil
	default:
		return Options{}, noop, nil
	}
}

func isYouTubeHost(target string) bool {
	host := hostname(target)
	return host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com"
}

func isDeezerHost(target string) bool {
	host := hostname(target)
	return host == "deezer.com" || strings.HasSuffix(host, ".deezer.com")
}

func hostname(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	return host
}
