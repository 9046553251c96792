package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fes.ini")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesTideAndRadialSources(t *testing.T) {
	path := writeConfig(t, `
# Ocean tide, M2 constituent.
TIDE_M2_FILE=/data/m2.nc
TIDE_M2_LATITUDE=lat
TIDE_M2_LONGITUDE=lon
TIDE_M2_AMPLITUDE=amplitude
TIDE_M2_PHASE=phase

RADIAL_M2_FILE=/data/m2_radial.nc
RADIAL_M2_LATITUDE=lat
RADIAL_M2_LONGITUDE=lon
RADIAL_M2_AMPLITUDE=amplitude
RADIAL_M2_PHASE=phase
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tide, ok := cfg.Waves[Tide]["M2"]
	if !ok {
		t.Fatalf("TIDE M2 not parsed")
	}
	if tide.File != "/data/m2.nc" || tide.Latitude != "lat" {
		t.Errorf("TIDE M2 = %+v", tide)
	}
	radial, ok := cfg.Waves[Radial]["M2"]
	if !ok || radial.File != "/data/m2_radial.nc" {
		t.Errorf("RADIAL M2 = %+v, ok=%v", radial, ok)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "TIDE_M2_FILE=/data/m2.nc\nBOGUS_KEY=1\nANOTHER_BAD=2\n")
	_, err := Load(path)
	if !tidalerr.Is(err, tidalerr.InvalidConfig) {
		t.Fatalf("Load error = %v, want InvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "BOGUS_KEY") || !strings.Contains(err.Error(), "ANOTHER_BAD") {
		t.Errorf("error %q does not list every offending key", err.Error())
	}
}

func TestLoadRejectsIncompleteSource(t *testing.T) {
	path := writeConfig(t, "TIDE_M2_FILE=/data/m2.nc\nTIDE_M2_LATITUDE=lat\n")
	_, err := Load(path)
	if !tidalerr.Is(err, tidalerr.InvalidConfig) {
		t.Fatalf("Load error = %v, want InvalidConfig", err)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("FES_DATA_ROOT", "/mnt/fes")
	path := writeConfig(t, `
TIDE_M2_FILE=${FES_DATA_ROOT}/m2.nc
TIDE_M2_LATITUDE=lat
TIDE_M2_LONGITUDE=lon
TIDE_M2_AMPLITUDE=amplitude
TIDE_M2_PHASE=phase
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Waves[Tide]["M2"].File; got != "/mnt/fes/m2.nc" {
		t.Errorf("File = %q, want /mnt/fes/m2.nc", got)
	}
}

func TestLoadParsesBufferSizeFromEnv(t *testing.T) {
	t.Setenv("FES_BUFFER_SIZE", "128")
	path := writeConfig(t, "TIDE_M2_FILE=/data/m2.nc\nTIDE_M2_LATITUDE=lat\nTIDE_M2_LONGITUDE=lon\nTIDE_M2_AMPLITUDE=amplitude\nTIDE_M2_PHASE=phase\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BufferSizeMiB != 128 {
		t.Errorf("BufferSizeMiB = %d, want 128", cfg.BufferSizeMiB)
	}
}

func TestLoadRejectsBufferSizeBelowMinimum(t *testing.T) {
	t.Setenv("FES_BUFFER_SIZE", "32")
	path := writeConfig(t, "TIDE_M2_FILE=/data/m2.nc\nTIDE_M2_LATITUDE=lat\nTIDE_M2_LONGITUDE=lon\nTIDE_M2_AMPLITUDE=amplitude\nTIDE_M2_PHASE=phase\n")
	_, err := Load(path)
	if !tidalerr.Is(err, tidalerr.InvalidConfig) {
		t.Fatalf("Load error = %v, want InvalidConfig", err)
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeConfig(t, "this is not a key value line\n")
	_, err := Load(path)
	if !tidalerr.Is(err, tidalerr.InvalidConfig) {
		t.Fatalf("Load error = %v, want InvalidConfig", err)
	}
}
