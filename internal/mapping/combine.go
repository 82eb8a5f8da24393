package mapping

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCardinalityMismatch reports that the container and image sets differ in
// size.
var ErrCardinalityMismatch = errors.New("container and image counts differ")

// Pair is one aligned unit of work: the container to use as exemplar, the
// image to embed, and where the result goes.
type Pair struct {
	Container string
	Image     string
	Output    string
}

// AlignedBatch holds the four independently sorted path lists of a combined
// container/image discovery. OutputImages is carried for parity only.
type AlignedBatch struct {
	InputContainers  []string
	InputImages      []string
	OutputContainers []string
	OutputImages     []string

	// Valid is false when the container and image counts differ.
	Valid bool
}

// Combine splits the two mapping sets into four lists and sorts each one by
// its path string. Index i of the container and image lists is expected to
// name the same stem; that only holds when matching stems collate
// identically, so callers that need certainty use [Join]. Nothing is
// truncated on a count mismatch.
func Combine(containers, images []Entry) AlignedBatch {
	b := AlignedBatch{
		InputContainers:  make([]string, 0, len(containers)),
		InputImages:      make([]string, 0, len(images)),
		OutputContainers: make([]string, 0, len(containers)),
		OutputImages:     make([]string, 0, len(images)),
	}
	for _, e := range containers {
		b.InputContainers = append(b.InputContainers, e.Input)
		b.OutputContainers = append(b.OutputContainers, e.Output)
	}
	for _, e := range images {
		b.InputImages = append(b.InputImages, e.Input)
		b.OutputImages = append(b.OutputImages, e.Output)
	}
	sort.Strings(b.InputContainers)
	sort.Strings(b.InputImages)
	sort.Strings(b.OutputContainers)
	sort.Strings(b.OutputImages)

	b.Valid = len(b.InputContainers) == len(b.InputImages)
	return b
}

// Err returns a wrapped ErrCardinalityMismatch when the batch is invalid.
func (b AlignedBatch) Err() error {
	if b.Valid {
		return nil
	}
	return fmt.Errorf("%w: %d containers, %d images",
		ErrCardinalityMismatch, len(b.InputContainers), len(b.InputImages))
}

// Len returns the number of index-aligned pairs, the shorter of the two sets.
func (b AlignedBatch) Len() int {
	return min(len(b.InputContainers), len(b.InputImages))
}

// Pairs aligns the sorted lists by index. Pairs beyond the shorter set are
// dropped.
func (b AlignedBatch) Pairs() []Pair {
	n := b.Len()
	pairs := make([]Pair, n)
	for i := range n {
		pairs[i] = Pair{
			Container: b.InputContainers[i],
			Image:     b.InputImages[i],
			Output:    b.OutputContainers[i],
		}
	}
	return pairs
}
