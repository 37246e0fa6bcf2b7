// Package store persists matches, replay recordings, and scoring events.
// It defines storage interfaces with two implementations: an in-memory store
// for development and testing, and a PostgreSQL store for deployments that
// keep history across restarts.
package store
