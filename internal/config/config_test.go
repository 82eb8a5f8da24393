package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/data/incoming", "/data/incoming"},
		{"single trailing slash", "/data/incoming/", "/data/incoming"},
		{"multiple trailing slashes", "/data/incoming///", "/data/incoming"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"relative with slash", "output/", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_Enums(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"index pairing", func(c *Config) { c.Pairing = PairingIndex }, false},
		{"unknown pairing", func(c *Config) { c.Pairing = "fuzzy" }, true},
		{"continue policy", func(c *Config) { c.OnMismatch = MismatchContinue }, false},
		{"empty policy", func(c *Config) { c.OnMismatch = "" }, true},
		{"unknown color", func(c *Config) { c.ColorMode = "sometimes" }, true},
		{"bad image glob", func(c *Config) { c.FilterIMG = "[" }, true},
		{"empty dicom glob", func(c *Config) { c.FilterDCM = "" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"compress without compressor", func(c *Config) { c.Compress = true; c.Compressor = " " }, true},
		{"relative subdir", func(c *Config) { c.OutputSubDir = "results" }, false},
		{"absolute subdir", func(c *Config) { c.OutputSubDir = "/tmp/results" }, true},
		{"escaping subdir", func(c *Config) { c.OutputSubDir = "../results" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CheckOnly = true // skip path requirement
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RequiresPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = false
	cfg.InputDir = ""
	cfg.OutputDir = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when paths are empty and CheckOnly is false")
	}

	cfg.InputDir = "/in"
	cfg.OutputDir = "/out"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CheckOnlySkipsPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	cfg.InputDir = ""
	cfg.OutputDir = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass with empty paths when CheckOnly is true, got: %v", err)
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		wantErr bool
	}{
		{"separate directories", "/data/in", "/data/out", false},
		{"output equals input", "/data/lib", "/data/lib", true},
		{"output inside input", "/data/lib", "/data/lib/output", true},
		{"output is parent of input", "/data/lib/sub", "/data/lib", false},
		{"similar prefix not nested", "/data/library", "/data/library2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.input, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v",
					tt.input, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FilterIMG != "**/*.png" {
		t.Errorf("default FilterIMG = %q", cfg.FilterIMG)
	}
	if cfg.FilterDCM != "**/*.dcm" {
		t.Errorf("default FilterDCM = %q", cfg.FilterDCM)
	}
	if cfg.Pairing != PairingStem {
		t.Errorf("default Pairing = %q, want %q", cfg.Pairing, PairingStem)
	}
	if cfg.OnMismatch != MismatchAbort {
		t.Errorf("default OnMismatch = %q, want %q", cfg.OnMismatch, MismatchAbort)
	}
	if cfg.Compressor != "dcmcjpeg" {
		t.Errorf("default Compressor = %q", cfg.Compressor)
	}
	if cfg.Workers < 1 {
		t.Errorf("default Workers = %d", cfg.Workers)
	}
	if cfg.Thread || cfg.Compress || cfg.DryRun {
		t.Error("Thread, Compress and DryRun should default to false")
	}
}

func TestScratchLocation(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ScratchLocation(); got != os.TempDir() {
		t.Errorf("ScratchLocation() = %q, want %q", got, os.TempDir())
	}
	cfg.ScratchDir = "/scratch"
	if got := cfg.ScratchLocation(); got != "/scratch" {
		t.Errorf("ScratchLocation() = %q, want /scratch", got)
	}
}

func TestParseFlags(t *testing.T) {
	cfg := DefaultConfig()
	err := ParseFlags(&cfg, []string{
		"--filterIMG", "**/*.jpg",
		"--outputSubDir", "results",
		"--thread", "--workers", "3",
		"--compress", "--compressor", "/opt/dcmtk/bin/dcmcjpeg",
		"--appendToSeriesDescription", "with measurements",
		"--pairing", "index",
		"--on-mismatch", "continue",
		"--no-color", "-v",
		"/in/", "/out",
	}, "test")
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"FilterIMG", cfg.FilterIMG, "**/*.jpg"},
		{"FilterDCM", cfg.FilterDCM, "**/*.dcm"},
		{"OutputSubDir", cfg.OutputSubDir, "results"},
		{"Thread", cfg.Thread, true},
		{"Workers", cfg.Workers, 3},
		{"Compress", cfg.Compress, true},
		{"Compressor", cfg.Compressor, "/opt/dcmtk/bin/dcmcjpeg"},
		{"AppendToSeriesDescription", cfg.AppendToSeriesDescription, "with measurements"},
		{"Pairing", cfg.Pairing, PairingIndex},
		{"OnMismatch", cfg.OnMismatch, MismatchContinue},
		{"ColorMode", cfg.ColorMode, ColorNever},
		{"Verbose", cfg.Verbose, true},
		{"InputDir", cfg.InputDir, "/in"},
		{"OutputDir", cfg.OutputDir, "/out"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing output", []string{"/in"}},
		{"extra positional", []string{"/in", "/out", "/more"}},
		{"bad pairing", []string{"--pairing", "fuzzy", "/in", "/out"}},
		{"bad policy", []string{"--on-mismatch", "ignore", "/in", "/out"}},
		{"unknown flag", []string{"--frobnicate", "/in", "/out"}},
		{"missing config file", []string{"--config", "/nonexistent/dicommake.toml", "/in", "/out"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseFlags(&cfg, tt.args, "test"); err == nil {
				t.Error("ParseFlags() should fail")
			}
		})
	}
}

func TestParseFlags_CheckNeedsNoPaths(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseFlags(&cfg, []string{"--check"}, "test"); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if !cfg.CheckOnly {
		t.Error("CheckOnly should be set")
	}
}

func TestParseFlags_ConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicommake.toml")
	body := `
filter_dcm = "**/*.DCM"
thread = true
workers = 2
append_to_series_description = "from file"
on_mismatch = "continue"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	err := ParseFlags(&cfg, []string{"--config", path, "--workers", "6", "/in", "/out"}, "test")
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.FilterDCM != "**/*.DCM" {
		t.Errorf("FilterDCM = %q, want value from file", cfg.FilterDCM)
	}
	if !cfg.Thread {
		t.Error("Thread should come from file")
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, want flag to override file", cfg.Workers)
	}
	if cfg.AppendToSeriesDescription != "from file" {
		t.Errorf("AppendToSeriesDescription = %q", cfg.AppendToSeriesDescription)
	}
	if cfg.OnMismatch != MismatchContinue {
		t.Errorf("OnMismatch = %q", cfg.OnMismatch)
	}
	if cfg.FilterIMG != "**/*.png" {
		t.Errorf("FilterIMG = %q, want default kept", cfg.FilterIMG)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicommake.toml")
	if err := os.WriteFile(path, []byte("treads = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	if err := LoadFile(&cfg, path); err == nil {
		t.Error("LoadFile() should reject unknown keys")
	}
}

func TestParseFlags_Version(t *testing.T) {
	cfg := DefaultConfig()
	err := ParseFlags(&cfg, []string{"--version"}, "test")
	if !errors.Is(err, ErrExit) {
		t.Errorf("ParseFlags(--version) = %v, want ErrExit", err)
	}
}
