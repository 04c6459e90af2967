// Package media turns a downloaded audio track and a cover image into a
// deliverable mp4 via ffmpeg, and manages the per-request work files.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"tuneclip/internal/core"
)

// fetchTimeout bounds the cover image download.
const fetchTimeout = 30 * time.Second

// Muxer builds videos from audio and still images.
type Muxer struct {
	ffmpegPath string
	workDir    string
	http       *http.Client
	logger     *zap.Logger
}

// NewMuxer creates a Muxer writing work files under cfg.WorkDir.
func NewMuxer(cfg core.MediaConfig, ffmpegPath string, logger *zap.Logger) *Muxer {
	return &Muxer{
		ffmpegPath: ffmpegPath,
		workDir:    cfg.WorkDir,
		http:       &http.Client{Timeout: fetchTimeout},
		logger:     logger,
	}
}

// WorkPaths returns unique per-request file paths for the audio, cover
// and output artifacts. Uniqueness comes from the timestamp so parallel
// requests never collide.
func (m *Muxer) WorkPaths() (audioPath, coverPath, videoPath string) {
	stamp := fmt.Sprintf("%d", time.Now().UnixNano())

	audioPath = filepath.Join(m.workDir, "audio-"+stamp+".mp3")
	coverPath = filepath.Join(m.workDir, "cover-"+stamp+".jpg")
	videoPath = filepath.Join(m.workDir, "video-"+stamp+".mp4")

	return audioPath, coverPath, videoPath
}

// EnsureWorkDir creates the work directory if it does not exist.
func (m *Muxer) EnsureWorkDir() error {
	return os.MkdirAll(m.workDir, 0o755)
}

// FetchImage downloads the cover image to destPath.
func (m *Muxer) FetchImage(ctx context.Context, imageURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover fetch returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return err
	}

	return f.Close()
}

// Mux loops the cover image over the audio track into an mp4. A missing
// or empty output file counts as a failure even when ffmpeg exits zero.
func (m *Muxer) Mux(ctx context.Context, audioPath, coverPath, videoPath string) error {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", coverPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		videoPath,
	}

	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		m.logger.Warn("ffmpeg mux failed",
			zap.Error(err),
			zap.String("stderr", truncate(stderr.String(), 500)))
		return fmt.Errorf("%w: ffmpeg: %v", core.ErrMergeFailed, err)
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		return fmt.Errorf("%w: output file missing", core.ErrMergeFailed)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: output file empty", core.ErrMergeFailed)
	}

	return nil
}

// Cleanup removes per-request work files, ignoring missing ones.
func (m *Muxer) Cleanup(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("Failed to remove work file",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
