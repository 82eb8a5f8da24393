// Package pipeline orchestrates a batch: discovery of both input sets,
// pairing, the mismatch policy, per-pair transforms (sequential or on a
// bounded worker pool), and the summary, metrics and telemetry that follow.
//
// Run is the top-level entry point used by the command; BuildPlan and
// RunBatch are its two halves and are usable on their own.
package pipeline
