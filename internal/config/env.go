package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays FLOSWEEP_* environment variables onto cfg.
//
// FLOSWEEP_SUBSCRIPTIONS replaces the subscription list and takes
// comma-separated namespace/topic/partition/name[=ttlSeconds] items.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FLOSWEEP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FLOSWEEP_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	envInt("FLOSWEEP_FSYNC_INTERVAL_MS", &cfg.FsyncIntervalMs)
	if v := os.Getenv("FLOSWEEP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("FLOSWEEP_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("FLOSWEEP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FLOSWEEP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	envInt("FLOSWEEP_EXPIRY_SWEEP_INTERVAL_MS", &cfg.Expiry.SweepIntervalMs)
	envInt("FLOSWEEP_EXPIRY_RATE_INTERVAL_MS", &cfg.Expiry.RateIntervalMs)
	envInt("FLOSWEEP_EXPIRY_SWEEP_TIMEOUT_MS", &cfg.Expiry.SweepTimeoutMs)
	envInt("FLOSWEEP_EXPIRY_WORKERS", &cfg.Expiry.Workers)
	envInt("FLOSWEEP_EXPIRY_DEFAULT_TTL_SECONDS", &cfg.Expiry.DefaultTTLSeconds)

	if v := os.Getenv("FLOSWEEP_SUBSCRIPTIONS"); v != "" {
		cfg.Subscriptions = nil
		for _, item := range strings.Split(v, ",") {
			if s, ok := parseSubscription(strings.TrimSpace(item)); ok {
				cfg.Subscriptions = append(cfg.Subscriptions, s)
			}
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func parseSubscription(item string) (Subscription, bool) {
	if item == "" {
		return Subscription{}, false
	}
	var s Subscription
	if i := strings.LastIndexByte(item, '='); i >= 0 {
		ttl, err := strconv.Atoi(item[i+1:])
		if err != nil {
			return Subscription{}, false
		}
		s.TTLSeconds = ttl
		item = item[:i]
	}
	parts := strings.Split(item, "/")
	if len(parts) != 4 {
		return Subscription{}, false
	}
	p, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Subscription{}, false
	}
	s.Namespace, s.Topic, s.Partition, s.Name = parts[0], parts[1], uint32(p), parts[3]
	return s, true
}
