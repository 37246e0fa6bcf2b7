// Package playback launches an external media player on saved replay clips.
// The player binary and its base arguments come from configuration, so any
// player that accepts a file path argument works.
package playback
