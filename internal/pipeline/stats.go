package pipeline

import (
	"errors"
	"time"

	"github.com/backmassage/dicommake/internal/compress"
	"github.com/backmassage/dicommake/internal/transform"
)

// Result is the outcome of one job.
type Result struct {
	Job      transform.Job
	Outcome  transform.Outcome
	Err      error
	Duration time.Duration
}

// JobError is one failed job.
type JobError struct {
	Job   transform.Job
	Err   error
	Class string
	Hint  string // remediation for recognised compressor diagnostics
}

// Report tracks aggregate counters across a batch run.
type Report struct {
	Total       int
	Written     int
	Skipped     int
	Failed      int
	OutputBytes int64
	Elapsed     time.Duration

	// Failures holds every failed job, ordered by container path.
	Failures []JobError
}

// Done returns the number of jobs that finished, successfully or not.
func (r *Report) Done() int {
	return r.Written + r.Skipped + r.Failed
}

func (r *Report) add(res Result, outBytes int64) {
	switch {
	case res.Err != nil:
		r.Failed++
		r.Failures = append(r.Failures, JobError{
			Job:   res.Job,
			Err:   res.Err,
			Class: Classify(res.Err),
			Hint:  Hint(res.Err),
		})
	case res.Outcome == transform.OutcomeWritten:
		r.Written++
		r.OutputBytes += outBytes
	default:
		r.Skipped++
	}
}

// Hint returns the compressor's remediation hint when err carries a
// [*compress.Error], or "".
func Hint(err error) string {
	var ce *compress.Error
	if errors.As(err, &ce) {
		return ce.Hint()
	}
	return ""
}
