// Package config holds runtime configuration: defaults, an optional TOML
// file, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// --- Enum types for validated string fields ---

// Pairing selects how containers and images are matched.
type Pairing string

const (
	PairingStem  Pairing = "stem"  // Join on file-name stem (default).
	PairingIndex Pairing = "index" // Align sorted lists by position.
)

// MismatchPolicy decides what happens when the two sets differ in size.
type MismatchPolicy string

const (
	MismatchAbort    MismatchPolicy = "abort"    // Log and exit 1 without work (default).
	MismatchContinue MismatchPolicy = "continue" // Warn and process the pairs that align.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a TOML file, and then mutated by [ParseFlags]
// before being passed (by pointer) to packages that need it.
type Config struct {
	// Paths (set from positional args).
	InputDir  string `toml:"-"`
	OutputDir string `toml:"-"`

	// Discovery.
	FilterIMG    string  `toml:"filter_img"`    // Default: "**/*.png".
	FilterDCM    string  `toml:"filter_dcm"`    // Default: "**/*.dcm".
	OutputSubDir string  `toml:"output_subdir"` // Non-empty selects the flat layout.
	Pairing      Pairing `toml:"pairing"`       // Default: "stem".

	// Execution.
	Thread     bool           `toml:"thread"`
	Workers    int            `toml:"workers"` // Default: runtime.NumCPU().
	OnMismatch MismatchPolicy `toml:"on_mismatch"`

	// Transform.
	AppendToSeriesDescription string `toml:"append_to_series_description"`
	Compress                  bool   `toml:"compress"`
	Compressor                string `toml:"compressor"`  // Default: "dcmcjpeg".
	ScratchDir                string `toml:"scratch_dir"` // Empty means os.TempDir().

	// Sinks.
	PftelDB     string `toml:"pftel_db"`
	MetricsFile string `toml:"metrics"`

	// Behavior, display and logging.
	DryRun     bool      `toml:"dry_run"`
	Verbose    bool      `toml:"verbose"`
	ColorMode  ColorMode `toml:"color"` // Default: "auto".
	LogFile    string    `toml:"log"`
	CheckOnly  bool      `toml:"-"`
	ConfigFile string    `toml:"-"`
}

// DefaultConfig returns a Config with every default applied. Used as the
// base before the config file and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		FilterIMG:  "**/*.png",
		FilterDCM:  "**/*.dcm",
		Pairing:    PairingStem,
		Workers:    runtime.NumCPU(),
		OnMismatch: MismatchAbort,
		Compressor: "dcmcjpeg",
		ColorMode:  ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, globs and numeric limits. When not in
// CheckOnly mode, it also requires that both directory paths are set.
func (c *Config) Validate() error {
	switch c.Pairing {
	case PairingStem, PairingIndex:
		// valid
	default:
		return errors.New("invalid pairing (use 'stem' or 'index')")
	}

	switch c.OnMismatch {
	case MismatchAbort, MismatchContinue:
		// valid
	default:
		return errors.New("invalid mismatch policy (use 'abort' or 'continue')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	for _, g := range []struct{ name, pattern string }{
		{"filterIMG", c.FilterIMG},
		{"filterDCM", c.FilterDCM},
	} {
		if g.pattern == "" || !doublestar.ValidatePattern(g.pattern) {
			return fmt.Errorf("invalid %s glob %q", g.name, g.pattern)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", c.Workers)
	}
	if c.Compress && strings.TrimSpace(c.Compressor) == "" {
		return errors.New("compressor must not be empty when --compress is set")
	}
	if sub := filepath.Clean(c.OutputSubDir); filepath.IsAbs(sub) ||
		sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
		return fmt.Errorf("outputSubDir %q must be relative to output_dir", c.OutputSubDir)
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("need exactly input_dir and output_dir")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. This prevents the mappers from
// discovering the tool's own outputs. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// ScratchLocation returns the directory used for pre-compression files.
func (c *Config) ScratchLocation() string {
	if c.ScratchDir != "" {
		return c.ScratchDir
	}
	return os.TempDir()
}
