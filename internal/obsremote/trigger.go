package obsremote

import (
	"context"
	"log/slog"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
)

// Switcher is the slice of the OBS client the clip trigger drives.
type Switcher interface {
	CreateBufferClip(ctx context.Context) error
	StopRecording(ctx context.Context) error
}

// ClipTrigger reacts to scoring events by cutting replay clips: every scored
// point and every challenge saves the replay buffer, and the match winner
// stops the recording for the bout. All other events pass through untouched.
type ClipTrigger struct {
	obs    Switcher
	logger *slog.Logger
}

// NewClipTrigger builds the trigger sink around an OBS control surface.
func NewClipTrigger(obs Switcher, logger *slog.Logger) *ClipTrigger {
	return &ClipTrigger{obs: obs, logger: logger}
}

// Publish implements event.Sink.
func (t *ClipTrigger) Publish(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.Point:
		if err := t.obs.CreateBufferClip(ctx); err != nil {
			return err
		}
		t.logger.Info("Saved replay clip",
			slog.String("trigger", "point"),
			slog.String("point_type", e.Type.Label()))
	case event.Challenge:
		if err := t.obs.CreateBufferClip(ctx); err != nil {
			return err
		}
		t.logger.Info("Saved replay clip", slog.String("trigger", "challenge"))
	case event.MatchWinner:
		if err := t.obs.StopRecording(ctx); err != nil {
			return err
		}
		t.logger.Info("Stopped match recording", slog.String("winner", e.Name))
	}
	return nil
}
