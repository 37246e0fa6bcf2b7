// Package event defines the typed events decoded from PSS telemetry and
// the Sink seam that carries them to downstream consumers: the log stream,
// the match recorder, the live tracker, and the replay trigger.
package event
