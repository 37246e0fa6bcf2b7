// Package obsremote controls an OBS Studio instance over the obs-websocket
// v5 protocol. It covers scene switching, recording, and replay-buffer clips,
// and adapts them to the event stream so scoring actions cut clips
// automatically. Requests run behind a circuit breaker so an unreachable OBS
// cannot back up the callers.
package obsremote
