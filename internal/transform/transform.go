// Package transform turns one (container, image) pair into an output
// document: load both, embed the image, and persist the result either
// directly or through the external compressor.
package transform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/dicommake/internal/compress"
	"github.com/backmassage/dicommake/internal/dcm"
	"github.com/backmassage/dicommake/internal/logging"
	"github.com/backmassage/dicommake/internal/naming"
	"github.com/backmassage/dicommake/internal/raster"
)

// Job is one unit of work.
type Job struct {
	Container string // exemplar document
	Image     string // raster image to embed
	Output    string // destination document
}

// Outcome reports what Transform did with a job.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // stems differ; nothing read or written
	OutcomeWritten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeWritten:
		return "written"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Transformer holds the batch-wide settings applied to every job. It keeps
// no per-job state and is safe for concurrent use.
type Transformer struct {
	AppendText string // appended to SeriesDescription when non-empty
	Compress   bool
	Compressor string // binary name or path; empty means dcmcjpeg
	ScratchDir string // pre-compression files; empty means os.TempDir()

	Now     func() time.Time // acquisition stamp; defaults to time.Now
	Log     *logging.Logger  // nil discards
	Verbose bool
	Tee     io.Writer // receives compressor stderr as it runs; may be nil
}

// Transform processes job. Containers and images whose stems differ are
// skipped without error. Failures are returned wrapped; the kinds are
// raster.ErrDecode, dcm.ErrDecode, *compress.Error and *fs.PathError.
func (t *Transformer) Transform(ctx context.Context, job Job) (Outcome, error) {
	log := t.logger().With("pair", naming.Stem(job.Container))
	if !naming.SameStem(job.Container, job.Image) {
		log.Debug(t.Verbose, "Skipping %s: stem differs from %s", job.Image, job.Container)
		return OutcomeSkipped, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeSkipped, err
	}

	log.Info("Processing %s using %s", job.Container, job.Image)

	img, err := raster.Load(job.Image)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("image %s: %w", job.Image, err)
	}
	doc, err := dcm.Load(job.Container)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("container %s: %w", job.Container, err)
	}
	log.Debug(t.Verbose, "Embedding %dx%d %s image (%d samples)", img.Width, img.Height, img.Format, img.Samples)

	if err := dcm.Embed(doc, img, dcm.EmbedOptions{Now: t.now(), AppendText: t.AppendText}); err != nil {
		return OutcomeSkipped, fmt.Errorf("container %s: %w", job.Container, err)
	}

	if t.Compress {
		err = t.writeCompressed(ctx, log, doc, job.Output)
	} else {
		err = doc.WriteFile(job.Output)
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	log.Info("Saved %s", job.Output)
	return OutcomeWritten, nil
}

// writeCompressed stages doc in the scratch directory and runs the
// compressor into output. The staged file is always removed; a partial
// output is removed when the compressor fails.
func (t *Transformer) writeCompressed(ctx context.Context, log *logging.Logger, doc *dcm.Document, output string) error {
	scratch := filepath.Join(t.scratchDir(), "dicommake-"+uuid.NewString()+".dcm")
	defer func() {
		if err := os.Remove(scratch); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Could not remove scratch file %s: %v", scratch, err)
		}
	}()

	if err := doc.WriteFile(scratch); err != nil {
		return fmt.Errorf("scratch %s: %w", scratch, err)
	}

	res, err := compress.Run(ctx, t.Compressor, scratch, output, t.Tee)
	log.Debug(t.Verbose, "Compressor: %s", strings.Join(res.Args, " "))
	if res.Stdout != "" {
		log.Debug(t.Verbose, "Compressor response: %s", res.Stdout)
	}
	if err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn("Could not remove partial output %s: %v", output, rmErr)
		}
		return err
	}
	return nil
}

func (t *Transformer) logger() *logging.Logger {
	if t.Log == nil {
		return logging.Nop()
	}
	return t.Log
}

func (t *Transformer) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

func (t *Transformer) scratchDir() string {
	if t.ScratchDir == "" {
		return os.TempDir()
	}
	return t.ScratchDir
}
