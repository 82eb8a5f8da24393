package pipeline

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/dicommake/internal/config"
	"github.com/backmassage/dicommake/internal/display"
	"github.com/backmassage/dicommake/internal/logging"
	"github.com/backmassage/dicommake/internal/metrics"
	"github.com/backmassage/dicommake/internal/telemetry"
	"github.com/backmassage/dicommake/internal/transform"
)

// Transformer processes one job. *transform.Transformer is the production
// implementation.
type Transformer interface {
	Transform(ctx context.Context, job transform.Job) (transform.Outcome, error)
}

// BatchOptions controls how RunBatch schedules jobs.
type BatchOptions struct {
	Parallel bool
	Workers  int // pool size when Parallel; <1 means runtime.NumCPU()

	// OnResult, when set, is called once per finished job. In parallel mode
	// calls are concurrent.
	OnResult func(Result)
}

// RunBatch runs jobs through tr. Sequentially, jobs run in order and the
// first error stops the batch. In parallel, every dispatched job runs to
// completion and the first error observed is returned. Either way the
// Report records every failure. Cancelling ctx stops dispatch of new jobs.
func RunBatch(ctx context.Context, jobs []transform.Job, tr Transformer, opts BatchOptions, log *logging.Logger) (Report, error) {
	start := time.Now()
	rep := Report{Total: len(jobs)}
	var mu sync.Mutex

	do := func(job transform.Job) error {
		t0 := time.Now()
		outcome, err := tr.Transform(ctx, job)
		res := Result{Job: job, Outcome: outcome, Err: err, Duration: time.Since(t0)}

		var size int64
		if err == nil && outcome == transform.OutcomeWritten {
			if fi, statErr := os.Stat(job.Output); statErr == nil {
				size = fi.Size()
			}
		}
		if opts.OnResult != nil {
			opts.OnResult(res)
		}

		mu.Lock()
		rep.add(res, size)
		mu.Unlock()

		if err != nil {
			log.Err(err, Classify(err), "%s: %v", job.Container, err)
			if h := Hint(err); h != "" {
				log.Warn("Hint: %s", h)
			}
		}
		return err
	}

	var err error
	if opts.Parallel {
		err = runParallel(ctx, jobs, opts.Workers, do)
	} else {
		err = runSequential(ctx, jobs, do)
	}

	sort.Slice(rep.Failures, func(i, j int) bool {
		return rep.Failures[i].Job.Container < rep.Failures[j].Job.Container
	})
	rep.Elapsed = time.Since(start)
	return rep, err
}

func runSequential(ctx context.Context, jobs []transform.Job, do func(transform.Job) error) error {
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := do(job); err != nil {
			return err
		}
	}
	return nil
}

func runParallel(ctx context.Context, jobs []transform.Job, workers int, do func(transform.Job) error) error {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error { return do(job) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Run is the top-level batch entry point: plan, create output directories,
// run the batch, then log the summary and export metrics and telemetry.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (Report, error) {
	start := time.Now()
	m := metrics.New()

	plan, err := BuildPlan(cfg, log)
	if err != nil {
		log.Err(err, Classify(err), "%v", err)
		return Report{}, err
	}
	m.ObserveDiscovery(len(plan.Containers), len(plan.Images))

	logBatchHeader(cfg, log, plan)

	if len(plan.Jobs) == 0 {
		log.Warn("No pairs to process")
		return Report{}, nil
	}

	if cfg.DryRun {
		for _, j := range plan.Jobs {
			log.Success("[DRY] Would write %s (%s + %s)", j.Output, j.Container, j.Image)
		}
		return Report{Total: len(plan.Jobs)}, nil
	}

	if err := prepareOutputDirs(plan.Jobs); err != nil {
		log.Error("Cannot create output directory: %v", err)
		return Report{}, err
	}

	var store *telemetry.Store
	runID := telemetry.NewRunID()
	if cfg.PftelDB != "" {
		store, err = telemetry.Open(cfg.PftelDB)
		if err != nil {
			log.Warn("Telemetry disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	tr := &transform.Transformer{
		AppendText: cfg.AppendToSeriesDescription,
		Compress:   cfg.Compress,
		Compressor: cfg.Compressor,
		ScratchDir: cfg.ScratchLocation(),
		Log:        log,
		Verbose:    cfg.Verbose,
	}
	if cfg.Verbose {
		tr.Tee = os.Stderr
	}

	opts := BatchOptions{
		Parallel: cfg.Thread,
		Workers:  cfg.Workers,
		OnResult: func(r Result) {
			recordResult(log, m, store, runID, r)
		},
	}
	rep, batchErr := RunBatch(ctx, plan.Jobs, tr, opts, log)
	if errors.Is(batchErr, context.Canceled) {
		log.Warn("Interrupted after %d of %d pairs", rep.Done(), rep.Total)
	}

	end := time.Now()
	m.Finish(start, end)
	logSummary(log, &rep)

	if store != nil {
		if err := store.RecordRun(telemetry.Run{
			ID:       runID,
			Start:    start,
			Duration: end.Sub(start),
			Written:  rep.Written,
			Skipped:  rep.Skipped,
			Failed:   rep.Failed,
		}); err != nil {
			log.Warn("Telemetry write failed: %v", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("Metrics write failed: %v", err)
		}
	}
	return rep, batchErr
}

// recordResult feeds one job's result to metrics and, for written
// outputs, to the telemetry store.
func recordResult(log *logging.Logger, m *metrics.Metrics, store *telemetry.Store, runID string, r Result) {
	outcome := r.Outcome.String()
	if r.Err != nil {
		outcome = "failed"
	}
	if r.Err != nil || r.Outcome != transform.OutcomeWritten {
		m.ObservePair(outcome, Classify(r.Err), r.Duration, 0)
		return
	}

	sum, size, err := telemetry.Checksum(r.Job.Output)
	if err != nil {
		log.Warn("Checksum %s: %v", r.Job.Output, err)
	}
	m.ObservePair(outcome, "", r.Duration, size)
	if store == nil || err != nil {
		return
	}
	if err := store.RecordOutput(telemetry.Output{
		RunID:  runID,
		Path:   r.Job.Output,
		Size:   size,
		BLAKE3: sum,
	}); err != nil {
		log.Warn("Telemetry write failed: %v", err)
	}
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, p *Plan) {
	log.Info("Found %d containers, %d images", len(p.Containers), len(p.Images))
	log.Info("Pairing: %s, %d pairs", cfg.Pairing, len(p.Jobs))
	log.Info("Layout: %s -> %s", p.Layout, p.OutputDir)
	if cfg.Thread {
		log.Info("Workers: %d", cfg.Workers)
	}
	if cfg.Compress {
		log.Info("Compression: %s", cfg.Compressor)
	}
	if cfg.AppendToSeriesDescription != "" {
		log.Info("SeriesDescription suffix: %q", cfg.AppendToSeriesDescription)
	}
	log.Info("")
}

func logSummary(log *logging.Logger, rep *Report) {
	log.Info("==============================")
	log.Info("Done: %d written, %d skipped, %d failed", rep.Written, rep.Skipped, rep.Failed)
	log.Info("Summary report:")
	log.Info("  Pairs processed: %d of %d", rep.Done(), rep.Total)
	log.Info("  Output size: %s", display.FormatBytes(rep.OutputBytes))
	log.Info("  Elapsed: %s", rep.Elapsed.Round(time.Millisecond))
	if rep.Failed == 0 {
		if rep.Written > 0 {
			log.Success("All pairs completed")
		}
		return
	}
	log.Error("Failures:")
	for _, f := range rep.Failures {
		if f.Hint != "" {
			log.Error("  [%s] %v (%s)", f.Class, f.Err, f.Hint)
			continue
		}
		log.Error("  [%s] %v", f.Class, f.Err)
	}
}
