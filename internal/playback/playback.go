package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
)

// ErrNoPlayer is returned when no player binary is configured.
var ErrNoPlayer = errors.New("no playback player configured")

// waitDelay bounds how long Play waits for output pipes to close after the
// player is killed. A player that forked children can leave the pipes open
// past its own death.
const waitDelay = time.Second

// Player invokes the configured media player on clip files.
type Player struct {
	config *config.PlaybackConfig
	logger *slog.Logger
}

// NewPlayer creates a player from configuration.
func NewPlayer(cfg *config.PlaybackConfig, logger *slog.Logger) *Player {
	return &Player{config: cfg, logger: logger}
}

// Play runs the player on the clip at path and waits for it to exit.
// The clip path is appended after the configured arguments. Cancelling
// the context kills the player.
func (p *Player) Play(ctx context.Context, path string) error {
	if p.config.Player == "" {
		return ErrNoPlayer
	}

	args := append(append([]string(nil), p.config.Args...), path)
	cmd := exec.CommandContext(ctx, p.config.Player, args...)
	cmd.WaitDelay = waitDelay

	p.logger.Info("Playing clip",
		slog.String("player", p.config.Player),
		slog.String("path", path))

	output, err := cmd.CombinedOutput()
	if err != nil {
		p.logger.Error("Playback failed",
			slog.String("player", p.config.Player),
			slog.String("path", path),
			slog.String("error", err.Error()))
		if len(output) > 0 {
			return fmt.Errorf("playback failed: %w: %s", err, output)
		}
		return fmt.Errorf("playback failed: %w", err)
	}

	p.logger.Info("Playback finished", slog.String("path", path))
	return nil
}
