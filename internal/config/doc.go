// Package config loads flosweep's runtime configuration. It exposes a
// Default() baseline, JSON/YAML file loading and a FLOSWEEP_* environment
// overlay.
//
// Example:
//
//	cfg, err := config.Load("/etc/flosweep.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
