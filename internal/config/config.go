// Package config parses the core's key-value configuration file: the
// recognized keys are exactly {TIDE, RADIAL} x {constituent name} x
// {FILE, LATITUDE, LONGITUDE, AMPLITUDE, PHASE}, one grid source per
// constituent per tide kind. The grammar (flat KEY=VALUE lines, no
// sections) mirrors the original implementation's bespoke parser rather
// than any standard format, so it is read directly with bufio.Scanner
// instead of reaching for an ini/yaml/toml library.
package config

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

// Kind selects which of the two parallel key families a Source came from.
type Kind int

const (
	// Tide selects the TIDE_* key family (ocean or long-period tide waves).
	Tide Kind = iota
	// Radial selects the RADIAL_* key family (radial/load tide waves).
	Radial
)

func (k Kind) String() string {
	if k == Radial {
		return "RADIAL"
	}
	return "TIDE"
}

// Source is one constituent's grid location: a file path plus the variable
// names of its four axes/fields within that file.
type Source struct {
	File      string
	Latitude  string
	Longitude string
	Amplitude string
	Phase     string
}

// Config is a fully parsed, validated configuration file.
type Config struct {
	Waves map[Kind]map[string]Source

	// BufferSizeMiB is FES_BUFFER_SIZE's parsed value, or 0 if the
	// environment variable was not set (InMemory mode, or the caller's
	// own default applies).
	BufferSizeMiB int
}

const minBufferSizeMiB = 64

var fields = [...]string{"FILE", "LATITUDE", "LONGITUDE", "AMPLITUDE", "PHASE"}

// Load reads and validates the configuration file at path, substituting
// ${NAME} environment variable references inside every value and reading
// FES_BUFFER_SIZE from the environment.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: path is an operator-supplied configuration argument, not untrusted input.
	f, err := os.Open(path)
	if err != nil {
		return nil, tidalerr.Wrap(tidalerr.InvalidConfig, err, "opening configuration file %q", path)
	}
	defer func() { _ = f.Close() }()

	raw, err := parseLines(f)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Waves: map[Kind]map[string]Source{Tide: {}, Radial: {}}}

	var unknown []string
	sources := map[Kind]map[string]*Source{Tide: {}, Radial: {}}

	for key, value := range raw {
		kind, name, field, ok := splitKey(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		byName := sources[kind]
		src, ok := byName[name]
		if !ok {
			src = &Source{}
			byName[name] = src
		}
		switch field {
		case "FILE":
			src.File = value
		case "LATITUDE":
			src.Latitude = value
		case "LONGITUDE":
			src.Longitude = value
		case "AMPLITUDE":
			src.Amplitude = value
		case "PHASE":
			src.Phase = value
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, tidalerr.New(tidalerr.InvalidConfig, "unrecognized configuration keys: %s", strings.Join(unknown, ", "))
	}

	for kind, byName := range sources {
		for name, src := range byName {
			if missing := src.missingFields(); len(missing) > 0 {
				return nil, tidalerr.New(tidalerr.InvalidConfig,
					"%s wave %q is missing required key(s): %s", kind, name, strings.Join(missing, ", "))
			}
			cfg.Waves[kind][name] = *src
		}
	}

	size, err := bufferSizeFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.BufferSizeMiB = size

	return cfg, nil
}

func (s *Source) missingFields() []string {
	var missing []string
	if s.File == "" {
		missing = append(missing, "FILE")
	}
	if s.Latitude == "" {
		missing = append(missing, "LATITUDE")
	}
	if s.Longitude == "" {
		missing = append(missing, "LONGITUDE")
	}
	if s.Amplitude == "" {
		missing = append(missing, "AMPLITUDE")
	}
	if s.Phase == "" {
		missing = append(missing, "PHASE")
	}
	return missing
}

// splitKey splits a key of the form "{TIDE,RADIAL}_{name}_{field}" into its
// three components. name may itself contain underscores (e.g. "2MN6"
// style constituent aliases do not, but this keeps the split robust);
// the kind prefix and field suffix are matched first and whatever remains
// between them is the constituent name.
func splitKey(key string) (kind Kind, name string, field string, ok bool) {
	var prefix string
	switch {
	case strings.HasPrefix(key, "TIDE_"):
		kind, prefix = Tide, "TIDE_"
	case strings.HasPrefix(key, "RADIAL_"):
		kind, prefix = Radial, "RADIAL_"
	default:
		return 0, "", "", false
	}
	rest := key[len(prefix):]

	for _, f := range fields {
		suffix := "_" + f
		if strings.HasSuffix(rest, suffix) && len(rest) > len(suffix) {
			return kind, rest[:len(rest)-len(suffix)], f, true
		}
	}
	return 0, "", "", false
}

// parseLines reads KEY=VALUE lines, skipping blank lines and lines whose
// first non-space character is '#' or ';', and expands ${NAME} references
// in values against the process environment.
func parseLines(f *os.File) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, tidalerr.New(tidalerr.InvalidConfig, "line %d: expected KEY=VALUE, got %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		values[key] = expandEnv(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, tidalerr.Wrap(tidalerr.InvalidConfig, err, "reading configuration file")
	}
	return values, nil
}

// expandEnv substitutes ${NAME} references; an undefined NAME expands to
// the empty string, matching os.Expand/shell semantics.
func expandEnv(value string) string {
	return os.Expand(value, os.Getenv)
}

// bufferSizeFromEnv parses FES_BUFFER_SIZE if set, requiring a positive
// integer of at least 64 (MiB).
func bufferSizeFromEnv() (int, error) {
	raw, ok := os.LookupEnv("FES_BUFFER_SIZE")
	if !ok || raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < minBufferSizeMiB {
		return 0, tidalerr.New(tidalerr.InvalidConfig,
			"FES_BUFFER_SIZE defines an invalid memory size: %q (want an integer >= %d)", raw, minBufferSizeMiB)
	}
	return value, nil
}

// MiBToBytes converts a MiB count to a byte count for cache.New's budget.
func MiBToBytes(mib int) int64 {
	return int64(mib) * 1024 * 1024
}
