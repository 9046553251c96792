// Package main is a thin CLI wrapper over the engine.Handle façade: one
// configuration file in, one (h, h_lp, quality) prediction out. It mirrors
// original_source's fes_core CLI example rather than the HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.ngs.io/tides-api/internal/adapter/cache"
	"go.ngs.io/tides-api/internal/config"
	"go.ngs.io/tides-api/internal/engine"
)

func main() {
	var (
		configPath string
		kindFlag   string
		modeFlag   string
		bufferMiB  int
		lat        float64
		lon        float64
		timeStr    string
	)

	flag.StringVar(&configPath, "config", "", "Path to the TIDE_*/RADIAL_* configuration file")
	flag.StringVar(&kindFlag, "kind", "tide", "Wave family to load: tide or radial")
	flag.StringVar(&modeFlag, "mode", "memory", "Cache mode: memory or direct")
	flag.IntVar(&bufferMiB, "buffer-mib", 0, "Direct-mode cache budget in MiB (overrides FES_BUFFER_SIZE)")
	flag.Float64Var(&lat, "lat", 0, "Query latitude in degrees")
	flag.Float64Var(&lon, "lon", 0, "Query longitude in degrees (east positive)")
	flag.StringVar(&timeStr, "time", "", "Query time, RFC3339 (default: now)")
	flag.Parse()

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "tides-core: -config is required")
		os.Exit(1)
	}

	kind, err := parseKind(kindFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tides-core: %v\n", err)
		os.Exit(1)
	}
	mode, err := parseMode(modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tides-core: %v\n", err)
		os.Exit(1)
	}

	t := time.Now().UTC()
	if timeStr != "" {
		t, err = time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tides-core: invalid -time: %v\n", err)
			os.Exit(1)
		}
	}

	h, err := engine.New(kind, mode, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tides-core: %v\n", err)
		os.Exit(1)
	}
	defer h.Delete()

	if bufferMiB > 0 {
		if err := h.SetBufferSize(bufferMiB); err != nil {
			fmt.Fprintf(os.Stderr, "tides-core: %v\n", err)
			os.Exit(1)
		}
	}

	height, longPeriod, quality, err := h.Core(lat, lon, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tides-core: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("h=%.6f h_lp=%.6f quality=%d\n", height, longPeriod, quality)
}

func parseKind(s string) (config.Kind, error) {
	switch s {
	case "tide":
		return config.Tide, nil
	case "radial":
		return config.Radial, nil
	default:
		return 0, fmt.Errorf("unknown -kind %q (want tide or radial)", s)
	}
}

func parseMode(s string) (cache.Mode, error) {
	switch s {
	case "memory":
		return cache.InMemory, nil
	case "direct":
		return cache.Direct, nil
	default:
		return 0, fmt.Errorf("unknown -mode %q (want memory or direct)", s)
	}
}
