package playback

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlayerAppendsClipPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "played")
	cfg := &config.PlaybackConfig{
		Player: "/bin/sh",
		Args:   []string{"-c", `echo "$1" > ` + out, "player"},
	}

	err := NewPlayer(cfg, discardLogger()).Play(context.Background(), "/clips/match-042.mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "/clips/match-042.mp4", strings.TrimSpace(string(data)))
}

func TestPlayerReportsFailure(t *testing.T) {
	cfg := &config.PlaybackConfig{
		Player: "/bin/sh",
		Args:   []string{"-c", "echo boom >&2; exit 3"},
	}

	err := NewPlayer(cfg, discardLogger()).Play(context.Background(), "clip.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPlayerRequiresConfiguredBinary(t *testing.T) {
	err := NewPlayer(&config.PlaybackConfig{}, discardLogger()).Play(context.Background(), "clip.mp4")
	require.ErrorIs(t, err, ErrNoPlayer)
}

func TestPlayerHonorsContextCancellation(t *testing.T) {
	// The backgrounded sleep survives the shell's death and keeps the
	// output pipes open; Play must still return shortly after the context
	// is cancelled instead of waiting for the orphan.
	cfg := &config.PlaybackConfig{
		Player: "/bin/sh",
		Args:   []string{"-c", "sleep 10 & wait"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewPlayer(cfg, discardLogger()).Play(ctx, "clip.mp4")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
