// Command dicommake is the CLI entrypoint: it pairs exemplar DICOM files
// with images by stem and writes one new DICOM per pair with the image
// embedded.
//
// It parses flags, validates configuration and paths, and either runs
// diagnostics (--check) or the batch pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/dicommake/internal/check"
	"github.com/backmassage/dicommake/internal/config"
	"github.com/backmassage/dicommake/internal/display"
	"github.com/backmassage/dicommake/internal/logging"
	"github.com/backmassage/dicommake/internal/pipeline"
)

// version and commit are overridden at build time via -ldflags.
var (
	version = "3.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		if errors.Is(err, config.ErrExit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "dicommake: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "dicommake: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dicommake: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available; all output goes through log from here on.
	display.PrintBanner(os.Stdout)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	// Input must exist, output is created if needed, and output must not be
	// inside input (the mappers would discover previous outputs).
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return 1
	}
	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.OutputDir)
			return 1
		}
	}
	if outputAbs, err := absPath(cfg.OutputDir); err == nil {
		if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
			log.Error("%v", err)
			log.Error("Choose an output path outside: %s", cfg.InputDir)
			return 1
		}
	} else if !cfg.DryRun {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}

	log.Info("=== dicommake v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)
	if cfg.Verbose {
		showPreamble(&cfg, log)
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}
	log.Info("")

	// Fail fast if --compress is set and the compressor is unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling. Cancel on SIGINT/SIGTERM so no new pairs
	// are dispatched; running transforms finish.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing running pairs…")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Phase 4: Run pipeline (discover → pair → transform → report).
	rep, err := pipeline.Run(ctx, &cfg, log)
	if err != nil || rep.Failed > 0 {
		return 1
	}
	return 0
}

// showPreamble lists the effective options.
func showPreamble(cfg *config.Config, log *logging.Logger) {
	opts := []struct {
		name  string
		value any
	}{
		{"filterIMG", cfg.FilterIMG},
		{"filterDCM", cfg.FilterDCM},
		{"outputSubDir", cfg.OutputSubDir},
		{"pairing", cfg.Pairing},
		{"on-mismatch", cfg.OnMismatch},
		{"thread", cfg.Thread},
		{"workers", cfg.Workers},
		{"compress", cfg.Compress},
		{"compressor", cfg.Compressor},
		{"scratch-dir", cfg.ScratchLocation()},
		{"appendToSeriesDescription", cfg.AppendToSeriesDescription},
		{"pftelDB", cfg.PftelDB},
		{"metrics", cfg.MetricsFile},
		{"config", cfg.ConfigFile},
		{"log", cfg.LogFile},
	}
	log.Debug(true, "Options:")
	for _, o := range opts {
		log.Debug(true, "  %-26s %v", o.name, o.value)
	}
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
