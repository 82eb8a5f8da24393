package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/backmassage/dicommake/internal/config"
	"github.com/backmassage/dicommake/internal/logging"
	"github.com/backmassage/dicommake/internal/mapping"
	"github.com/backmassage/dicommake/internal/transform"
)

// outputSuffix is the extension of every output document.
const outputSuffix = ".dcm"

// Plan is the resolved work for one run.
type Plan struct {
	OutputDir  string // output root, including --outputSubDir
	Layout     mapping.Layout
	Containers []mapping.Entry
	Images     []mapping.Entry
	Batch      mapping.AlignedBatch
	Jobs       []transform.Job

	// Mismatch is non-nil when the sets did not pair cleanly and the
	// policy allowed the run to continue.
	Mismatch error
}

// BuildPlan discovers both input sets, pairs them per cfg.Pairing and
// applies cfg.OnMismatch. Under the abort policy a mismatch is returned as
// an error and no jobs are planned.
func BuildPlan(cfg *config.Config, log *logging.Logger) (*Plan, error) {
	p := &Plan{OutputDir: cfg.OutputDir, Layout: mapping.LayoutTree}
	if cfg.OutputSubDir != "" {
		p.OutputDir = filepath.Join(cfg.OutputDir, cfg.OutputSubDir)
		p.Layout = mapping.LayoutFlat
		if !cfg.DryRun {
			if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	var err error
	p.Containers, err = mapping.Mapper{
		InputDir:  cfg.InputDir,
		OutputDir: p.OutputDir,
		Glob:      cfg.FilterDCM,
		Suffix:    outputSuffix,
		Layout:    p.Layout,
	}.Collect()
	if err != nil {
		return nil, fmt.Errorf("containers: %w", err)
	}
	p.Images, err = mapping.Mapper{
		InputDir:  cfg.InputDir,
		OutputDir: p.OutputDir,
		Glob:      cfg.FilterIMG,
		Suffix:    outputSuffix,
		Layout:    p.Layout,
	}.Collect()
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	log.Debug(cfg.Verbose, "Matched %d containers (%s), %d images (%s)",
		len(p.Containers), cfg.FilterDCM, len(p.Images), cfg.FilterIMG)

	p.Batch = mapping.Combine(p.Containers, p.Images)

	var pairs []mapping.Pair
	var mismatch error
	switch cfg.Pairing {
	case config.PairingIndex:
		pairs = p.Batch.Pairs()
		mismatch = p.Batch.Err()
	default:
		j := mapping.Join(p.Containers, p.Images)
		pairs = j.Pairs
		mismatch = j.Err()
		if mismatch == nil {
			mismatch = p.Batch.Err()
		}
		logJoinDetail(cfg, log, j)
	}

	if mismatch != nil {
		if cfg.OnMismatch != config.MismatchContinue {
			return nil, mismatch
		}
		log.Warn("%v; continuing with %d pairs", mismatch, len(pairs))
		p.Mismatch = mismatch
	}

	p.Jobs = make([]transform.Job, len(pairs))
	for i, pr := range pairs {
		p.Jobs[i] = transform.Job{Container: pr.Container, Image: pr.Image, Output: pr.Output}
	}
	return p, nil
}

func logJoinDetail(cfg *config.Config, log *logging.Logger, j mapping.JoinResult) {
	for _, c := range j.UnmatchedContainers {
		log.Debug(cfg.Verbose, "No image for %s", c)
	}
	for _, i := range j.UnmatchedImages {
		log.Debug(cfg.Verbose, "No container for %s", i)
	}
	for _, s := range j.DuplicateStems {
		log.Debug(cfg.Verbose, "Ambiguous stem %q", s)
	}
}

// prepareOutputDirs creates every distinct output parent directory once,
// before any job is dispatched.
func prepareOutputDirs(jobs []transform.Job) error {
	seen := make(map[string]bool)
	var dirs []string
	for _, j := range jobs {
		d := filepath.Dir(j.Output)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
