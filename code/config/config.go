// Package config loads a Bus's JSON-backed settings, modeled on the
// teacher's loadSettings pattern (code/logging/logger.go, code/core/
// services/base.go): read what's present, default the rest, never fail
// the caller just because the file is missing.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// LoggerConfig mirrors the JSON fields logging.Logger.loadSettings reads
// directly; it exists here so a single config file can describe the
// whole bus, logger included, in one place.
type LoggerConfig struct {
	Level          string `json:"log_level"`
	BatchSize      int    `json:"log_batch_size"`
	BatchSleepTime int    `json:"log_batch_sleep_time"`
}

// AuditConfig describes an optional AuditSink to attach to the bus.
type AuditConfig struct {
	Enabled       bool   `json:"enabled"`
	Path          string `json:"path"`
	BatchSize     int    `json:"batch_size"`
	FlushInterval int    `json:"flush_interval_seconds"`
}

// BusConfig is the JSON-serializable description of a Bus's shape:
// queue kind and count, worker count, and the ambient logger/audit
// sub-sections.
type BusConfig struct {
	NumQueues  int          `json:"num_queues"`
	NumWorkers int          `json:"num_workers"`
	QueueKind  string       `json:"queue_kind"` // "mutex" | "ring"
	RingSize   int          `json:"ring_size"`
	Logger     LoggerConfig `json:"logger"`
	Audit      AuditConfig  `json:"audit"`
}

// defaults mirrors logging.Logger's own built-in fallbacks, so a bus
// built from a zero-value or missing config file behaves the same way an
// embedder who skipped config entirely would expect.
func defaults() BusConfig {
	return BusConfig{
		NumQueues:  1,
		NumWorkers: 1,
		QueueKind:  "mutex",
		RingSize:   1024,
		Logger: LoggerConfig{
			Level:          "warning",
			BatchSize:      50,
			BatchSleepTime: 5,
		},
		Audit: AuditConfig{
			BatchSize:     50,
			FlushInterval: 5,
		},
	}
}

// LoadBusConfig reads path and returns a BusConfig with every unset field
// defaulted, exactly as logging.Logger.loadSettings defaults log_level to
// "warning" when its config file is absent or a field is missing. A
// missing file is not an error; a malformed one is.
func LoadBusConfig(path string) (BusConfig, error) {
	cfg := defaults()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg, nil
	}

	var raw struct {
		NumQueues  *int            `json:"num_queues"`
		NumWorkers *int            `json:"num_workers"`
		QueueKind  *string         `json:"queue_kind"`
		RingSize   *int            `json:"ring_size"`
		Logger     json.RawMessage `json:"logger"`
		Audit      json.RawMessage `json:"audit"`
	}
	if err := json.Unmarshal(file, &raw); err != nil {
		return BusConfig{}, err
	}

	if raw.NumQueues != nil {
		cfg.NumQueues = *raw.NumQueues
	}
	if raw.NumWorkers != nil {
		cfg.NumWorkers = *raw.NumWorkers
	}
	if raw.QueueKind != nil {
		cfg.QueueKind = *raw.QueueKind
	}
	if raw.RingSize != nil {
		cfg.RingSize = *raw.RingSize
	}
	if raw.Logger != nil {
		if err := json.Unmarshal(raw.Logger, &cfg.Logger); err != nil {
			return BusConfig{}, err
		}
	}
	if raw.Audit != nil {
		if err := json.Unmarshal(raw.Audit, &cfg.Audit); err != nil {
			return BusConfig{}, err
		}
	}
	return cfg, nil
}

// FlushIntervalDuration returns the audit config's flush interval as a
// time.Duration, defaulting to 5 seconds when unset.
func (a AuditConfig) FlushIntervalDuration() time.Duration {
	if a.FlushInterval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.FlushInterval) * time.Second
}
