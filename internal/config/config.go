package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pebblestore "github.com/rzbill/flosweep/internal/storage/pebble"
	"github.com/rzbill/flosweep/pkg/log"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir         string         `json:"dataDir" yaml:"dataDir"`
	Fsync           string         `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int            `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	HTTPAddr        string         `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr        string         `json:"grpcAddr" yaml:"grpcAddr"`
	Log             log.Config     `json:"log" yaml:"log"`
	Expiry          Expiry         `json:"expiry" yaml:"expiry"`
	Subscriptions   []Subscription `json:"subscriptions" yaml:"subscriptions"`
}

// Expiry tunes the sweep scheduler and monitors.
type Expiry struct {
	SweepIntervalMs   int `json:"sweepIntervalMs" yaml:"sweepIntervalMs"`
	RateIntervalMs    int `json:"rateIntervalMs" yaml:"rateIntervalMs"`
	SweepTimeoutMs    int `json:"sweepTimeoutMs" yaml:"sweepTimeoutMs"` // 0 disables
	Workers           int `json:"workers" yaml:"workers"`
	DefaultTTLSeconds int `json:"defaultTTLSeconds" yaml:"defaultTTLSeconds"`
}

// SweepInterval returns SweepIntervalMs as a duration.
func (e Expiry) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalMs) * time.Millisecond
}

// RateInterval returns RateIntervalMs as a duration.
func (e Expiry) RateInterval() time.Duration {
	return time.Duration(e.RateIntervalMs) * time.Millisecond
}

// SweepTimeout returns SweepTimeoutMs as a duration.
func (e Expiry) SweepTimeout() time.Duration {
	return time.Duration(e.SweepTimeoutMs) * time.Millisecond
}

// Subscription declares one swept subscription. A zero TTLSeconds inherits
// Expiry.DefaultTTLSeconds.
type Subscription struct {
	Namespace  string `json:"namespace" yaml:"namespace"`
	Topic      string `json:"topic" yaml:"topic"`
	Partition  uint32 `json:"partition" yaml:"partition"`
	Name       string `json:"name" yaml:"name"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Fsync:           "always",
		FsyncIntervalMs: 5,
		HTTPAddr:        ":8080",
		GRPCAddr:        ":9090",
		Log:             log.Config{Level: "info", Format: "text"},
		Expiry: Expiry{
			SweepIntervalMs:   5000,
			RateIntervalMs:    60000,
			Workers:           4,
			DefaultTTLSeconds: 3600,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// Default. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// FsyncMode parses the Fsync field.
func (c Config) FsyncMode() (pebblestore.FsyncMode, error) {
	return pebblestore.ParseFsyncMode(c.Fsync)
}

// FsyncInterval returns FsyncIntervalMs as a duration.
func (c Config) FsyncInterval() time.Duration {
	return time.Duration(c.FsyncIntervalMs) * time.Millisecond
}

// TTLFor resolves the effective TTL of s.
func (c Config) TTLFor(s Subscription) int {
	if s.TTLSeconds > 0 {
		return s.TTLSeconds
	}
	return c.Expiry.DefaultTTLSeconds
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: dataDir is required", ErrInvalid)
	}
	if _, err := c.FsyncMode(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Expiry.SweepIntervalMs <= 0 || c.Expiry.RateIntervalMs <= 0 {
		return fmt.Errorf("%w: expiry intervals must be positive", ErrInvalid)
	}
	if c.Expiry.SweepTimeoutMs < 0 {
		return fmt.Errorf("%w: expiry.sweepTimeoutMs must not be negative", ErrInvalid)
	}
	if c.Expiry.Workers <= 0 {
		return fmt.Errorf("%w: expiry.workers must be positive", ErrInvalid)
	}
	seen := make(map[string]struct{}, len(c.Subscriptions))
	for i, s := range c.Subscriptions {
		for _, f := range []struct{ name, v string }{{"namespace", s.Namespace}, {"topic", s.Topic}, {"name", s.Name}} {
			if f.v == "" || strings.Contains(f.v, "/") {
				return fmt.Errorf("%w: subscriptions[%d].%s must be non-empty and contain no '/'", ErrInvalid, i, f.name)
			}
		}
		if c.TTLFor(s) <= 0 {
			return fmt.Errorf("%w: subscriptions[%d] has no positive ttl", ErrInvalid, i)
		}
		id := fmt.Sprintf("%s/%s/%d/%s", s.Namespace, s.Topic, s.Partition, s.Name)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate subscription %s", ErrInvalid, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
