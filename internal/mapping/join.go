package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/backmassage/dicommake/internal/naming"
)

// Errors reported by [JoinResult.Err].
var (
	ErrDuplicateStem = errors.New("stem appears more than once")
	ErrUnmatched     = errors.New("file has no counterpart with the same stem")
)

// JoinResult is the outcome of pairing containers and images by stem.
type JoinResult struct {
	Pairs []Pair // sorted by container path

	UnmatchedContainers []string // sorted
	UnmatchedImages     []string // sorted
	DuplicateStems      []string // sorted; excluded from Pairs
}

// Join pairs each container with the image that shares its stem. The output
// path of a pair is the container's mapped output. A stem that occurs more
// than once in either set is ambiguous and left unpaired.
func Join(containers, images []Entry) JoinResult {
	byStemC := groupByStem(containers)
	byStemI := groupByStem(images)

	var r JoinResult
	dups := make(map[string]bool)
	for stem, es := range byStemC {
		if len(es) > 1 {
			dups[stem] = true
		}
	}
	for stem, es := range byStemI {
		if len(es) > 1 {
			dups[stem] = true
		}
	}

	for stem, cs := range byStemC {
		if dups[stem] {
			continue
		}
		is, ok := byStemI[stem]
		if !ok {
			r.UnmatchedContainers = append(r.UnmatchedContainers, cs[0].Input)
			continue
		}
		r.Pairs = append(r.Pairs, Pair{
			Container: cs[0].Input,
			Image:     is[0].Input,
			Output:    cs[0].Output,
		})
	}
	for stem, is := range byStemI {
		if dups[stem] {
			continue
		}
		if _, ok := byStemC[stem]; !ok {
			r.UnmatchedImages = append(r.UnmatchedImages, is[0].Input)
		}
	}
	for stem := range dups {
		r.DuplicateStems = append(r.DuplicateStems, stem)
	}

	sort.Slice(r.Pairs, func(i, j int) bool { return r.Pairs[i].Container < r.Pairs[j].Container })
	sort.Strings(r.UnmatchedContainers)
	sort.Strings(r.UnmatchedImages)
	sort.Strings(r.DuplicateStems)
	return r
}

// Err summarizes duplicates and unmatched files, or returns nil when every
// file was paired.
func (r JoinResult) Err() error {
	var errs []error
	if len(r.DuplicateStems) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateStem, strings.Join(r.DuplicateStems, ", ")))
	}
	if n := len(r.UnmatchedContainers); n > 0 {
		errs = append(errs, fmt.Errorf("%w: %d container(s), first %s", ErrUnmatched, n, r.UnmatchedContainers[0]))
	}
	if n := len(r.UnmatchedImages); n > 0 {
		errs = append(errs, fmt.Errorf("%w: %d image(s), first %s", ErrUnmatched, n, r.UnmatchedImages[0]))
	}
	return errors.Join(errs...)
}

func groupByStem(entries []Entry) map[string][]Entry {
	m := make(map[string][]Entry, len(entries))
	for _, e := range entries {
		stem := naming.Stem(e.Input)
		m[stem] = append(m[stem], e)
	}
	return m
}
