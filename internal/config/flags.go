package config

// This file implements CLI flag parsing and help text.
// Flag names keep the plugin's historical camelCase spellings.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrExit is returned by [ParseFlags] after --help or --version has been
// printed; the caller should exit 0.
var ErrExit = errors.New("exit requested")

// ParseFlags parses args (without the program name) into cfg. When
// --config names a TOML file it is decoded first and the command line is
// applied on top of it. On --help or --version it prints and returns
// [ErrExit].
func ParseFlags(cfg *Config, args []string, version string) error {
	if path := configFileArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet("dicommake", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(os.Stderr, version) }

	var negated negatedFlags

	defineDiscoveryFlags(fs, cfg)
	defineExecutionFlags(fs, cfg)
	defineTransformFlags(fs, cfg)
	defineSinkFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, cfg, &negated)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrExit
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(os.Stdout, version)
		return ErrExit
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "dicommake v"+version)
		return ErrExit
	}

	return parsePositionalArgs(fs, cfg)
}

// configFileArg pre-scans args for --config so the file can be loaded
// before the real parse. Parse errors are left for the real parse.
func configFileArg(args []string) string {
	fs := flag.NewFlagSet("dicommake", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	var scratch Config
	var n negatedFlags
	defineDiscoveryFlags(fs, &scratch)
	defineExecutionFlags(fs, &scratch)
	defineTransformFlags(fs, &scratch)
	defineSinkFlags(fs, &scratch)
	defineDisplayFlags(fs, &scratch, &n)
	defineUtilityFlags(fs, &scratch, &n)
	_ = fs.Parse(args)
	return scratch.ConfigFile
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override a default (forceColor, noColor) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineDiscoveryFlags registers the globs, --outputSubDir and --pairing.
func defineDiscoveryFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FilterIMG, "filterIMG", cfg.FilterIMG, "Image glob")
	fs.StringVar(&cfg.FilterDCM, "filterDCM", cfg.FilterDCM, "DICOM glob")
	fs.StringVar(&cfg.OutputSubDir, "outputSubDir", cfg.OutputSubDir, "Write flat outputs under this subdirectory")
	fs.Var(&pairingValue{&cfg.Pairing}, "pairing", "Pairing strategy: stem | index")
}

// defineExecutionFlags registers --thread, --workers, --on-mismatch, -d/--dry-run.
func defineExecutionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Thread, "thread", cfg.Thread, "Process pairs in parallel")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel worker count")
	fs.Var(&mismatchValue{&cfg.OnMismatch}, "on-mismatch", "Cardinality mismatch policy: abort | continue")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Plan and log pairs; write nothing")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
}

// defineTransformFlags registers the description suffix and compression flags.
func defineTransformFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.AppendToSeriesDescription, "appendToSeriesDescription", cfg.AppendToSeriesDescription, "Append text to SeriesDescription")
	fs.BoolVar(&cfg.Compress, "compress", cfg.Compress, "Recompress outputs losslessly")
	fs.StringVar(&cfg.Compressor, "compressor", cfg.Compressor, "Compressor binary")
	fs.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "Directory for pre-compression files")
}

// defineSinkFlags registers --pftelDB, --metrics and --config.
func defineSinkFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.PftelDB, "pftelDB", cfg.PftelDB, "Telemetry database path")
	fs.StringVar(&cfg.MetricsFile, "metrics", cfg.MetricsFile, "Write Prometheus metrics to file")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML config file")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir and OutputDir from the two positional args when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("need exactly input_dir and output_dir")
	}
	cfg.InputDir = NormalizeDirArg(args[0])
	cfg.OutputDir = NormalizeDirArg(args[1])
	return nil
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 40 // width of "  --appendToSeriesDescription <text>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "dicommake v" + version + " - embed images into DICOM exemplars"},
		{"", ""},
		{"  dicommake [OPTIONS] <input_dir> <output_dir>", ""},
		{"", ""},
		{"Discovery", ""},
		{"  --filterIMG <glob>", "Image glob (default: **/*.png)"},
		{"  --filterDCM <glob>", "DICOM glob (default: **/*.dcm)"},
		{"  --outputSubDir <path>", "Flat outputs under <output_dir>/<path>"},
		{"  --pairing <stem|index>", "Pairing strategy (default: stem)"},
		{"", ""},
		{"Execution", ""},
		{"  --thread", "Process pairs in parallel"},
		{"  --workers <n>", "Parallel worker count (default: CPU count)"},
		{"  --on-mismatch <abort|continue>", "Set size mismatch policy (default: abort)"},
		{"  -d, --dry-run", "Plan and log pairs; write nothing"},
		{"", ""},
		{"Transform", ""},
		{"  --appendToSeriesDescription <text>", "Append text to SeriesDescription"},
		{"  --compress", "Recompress outputs losslessly"},
		{"  --compressor <bin>", "Compressor binary (default: dcmcjpeg)"},
		{"  --scratch-dir <dir>", "Pre-compression files (default: system temp)"},
		{"", ""},
		{"Sinks", ""},
		{"  --pftelDB <path>", "Record run telemetry to a database"},
		{"  --metrics <path>", "Write Prometheus metrics to file"},
		{"  --config <file.toml>", "Load settings; flags override the file"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append JSON logs to file"},
		{"  -c, --check", "System diagnostics (compressor)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (Pairing, MismatchPolicy) with flag.Var.

type pairingValue struct{ p *Pairing }

func (v *pairingValue) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}
func (v *pairingValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "stem":
		*v.p = PairingStem
	case "index":
		*v.p = PairingIndex
	default:
		return fmt.Errorf("invalid pairing %q (use 'stem' or 'index')", s)
	}
	return nil
}

type mismatchValue struct{ p *MismatchPolicy }

func (v *mismatchValue) String() string {
	if v.p == nil {
		return ""
	}
	return string(*v.p)
}
func (v *mismatchValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "abort":
		*v.p = MismatchAbort
	case "continue":
		*v.p = MismatchContinue
	default:
		return fmt.Errorf("invalid mismatch policy %q (use 'abort' or 'continue')", s)
	}
	return nil
}
