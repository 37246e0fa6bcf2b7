// Package config provides configuration loading and validation for the PSS
// ingestion service. It handles YAML-based configuration with per-section
// validation covering the UDP listener, the monitoring API, and the
// downstream collaborators (OBS remote, match storage, license, playback).
package config
