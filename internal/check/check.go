// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the external compressor and the
// scratch directory.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/dicommake/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or location is unusable.
var (
	ErrCompressorNotFound = errors.New("compressor not found on PATH")
	ErrScratchUnwritable  = errors.New("scratch directory is not writable")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: compressor availability and
// version, then scratch directory writability. It reports every finding and
// returns false when any required item failed.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkCompressor(cfg.Compressor, log)
	if !checkScratch(cfg.ScratchLocation(), log) {
		ok = false
	}
	return ok
}

// checkCompressor verifies the compressor is on PATH and logs its version line.
func checkCompressor(bin string, log Logger) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("%s not found (needed for --compress)", bin)
		return false
	}
	out, err := exec.Command(path, "--version").CombinedOutput()
	if err != nil {
		log.Warn("%s found at %s but --version failed: %v", bin, path, err)
		return true
	}
	log.Success("%s: %s", bin, firstLine(string(out)))
	return true
}

// checkScratch logs whether a file can be created in dir.
func checkScratch(dir string, log Logger) bool {
	if err := probeWritable(dir); err != nil {
		log.Error("Scratch directory %s: %v", dir, err)
		return false
	}
	log.Success("Scratch directory writable: %s", dir)
	return true
}

// CheckDeps is the pre-pipeline validation. With --compress the compressor
// must be on PATH and the scratch directory writable; without it nothing
// external is needed. Returns a sentinel error (wrapped with detail) on failure.
func CheckDeps(cfg *config.Config) error {
	if !cfg.Compress || cfg.DryRun {
		return nil
	}
	if _, err := exec.LookPath(cfg.Compressor); err != nil {
		return fmt.Errorf("%w: %s", ErrCompressorNotFound, cfg.Compressor)
	}
	if err := probeWritable(cfg.ScratchLocation()); err != nil {
		return fmt.Errorf("%w: %v", ErrScratchUnwritable, err)
	}
	return nil
}

// --- internal helpers ---

// probeWritable creates and removes a temporary file in dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".dicommake-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
