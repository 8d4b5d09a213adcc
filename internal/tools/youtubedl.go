// Package tools wraps the external programs some commands shell out to.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const audioFormat = "mp3"

// YoutubeDL downloads audio tracks with the youtube-dl program
type YoutubeDL struct {
	Binary string
}

// NewYoutubeDL uses youtube-dl from PATH when binary is empty
func NewYoutubeDL(binary string) *YoutubeDL {
	if binary == "" {
		binary = "youtube-dl"
	}
	return &YoutubeDL{Binary: binary}
}

// DownloadAudio extracts the audio of url into dir and returns the file path
func (y *YoutubeDL) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Binary,
		"--audio-format", audioFormat,
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"),
		"-x", url,
	)
	cmd.Stderr = &stderr
	// youtube-dl spawns ffmpeg, which may outlive a killed parent
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("youtube-dl %s: %w", url, ctx.Err())
		}
		return "", fmt.Errorf("youtube-dl %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*."+audioFormat))
	if err != nil {
		return "", fmt.Errorf("failed to look up downloaded audio: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("youtube-dl %s: no %s file produced", url, audioFormat)
	}
	return matches[0], nil
}
