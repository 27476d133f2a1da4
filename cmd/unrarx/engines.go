package main

import (
	"fmt"

	"github.com/tragoedia0722/unrar/pkg/engine"
	"github.com/tragoedia0722/unrar/pkg/engine/native"
	"github.com/tragoedia0722/unrar/pkg/engine/rardecode"
)

// engineConfig carries the extraction settings that engines understand.
type engineConfig struct {
	name      string
	overwrite bool
	bandwidth int64
}

func engineConfigFromArgs(args map[string]interface{}) engineConfig {
	cfg := engineConfig{name: optString(args, "--engine")}
	if v, ok := args["--overwrite"].(bool); ok {
		cfg.overwrite = v
	}
	if v, ok := args["--limit"].(int64); ok {
		cfg.bandwidth = v
	}
	return cfg
}

func newEngine(cfg engineConfig) (engine.Engine, error) {
	switch cfg.name {
	case "", "go":
		return rardecode.New().
			WithOverwrite(cfg.overwrite).
			WithBandwidth(cfg.bandwidth).
			WithLogger(lg.With("engine", "go")), nil
	case "native":
		if cfg.bandwidth > 0 {
			lg.Warnw("Bandwidth limit is not supported by the native engine.")
		}
		if !cfg.overwrite {
			lg.Debugw("The native engine applies the library's overwrite default.")
		}
		return native.New().WithLogger(lg.With("engine", "native")), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.name)
	}
}
