package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/backmassage/dicommake/internal/naming"
)

// Sentinel errors returned by the mapper.
var (
	ErrEmptyInputSet = errors.New("glob matched no input files")
	ErrBadGlob       = errors.New("invalid glob pattern")
)

// errStopWalk aborts the glob walk when the consumer stops iterating.
var errStopWalk = errors.New("stop walk")

// Layout selects how output paths are derived from input paths.
type Layout int

const (
	// LayoutTree mirrors each input's path relative to the input root.
	LayoutTree Layout = iota
	// LayoutFlat places every output directly in the output directory.
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutTree:
		return "tree"
	case LayoutFlat:
		return "flat"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Entry is one (input, output) mapping produced by a [Mapper].
type Entry struct {
	Input  string
	Output string
}

// Mapper maps every file under InputDir matching Glob to an output path
// under OutputDir whose extension is replaced by Suffix.
type Mapper struct {
	InputDir  string
	OutputDir string
	Glob      string // doublestar syntax, slash-separated, relative to InputDir
	Suffix    string // e.g. ".dcm"
	Layout    Layout

	// RequireNonEmpty makes an empty match set an error (ErrEmptyInputSet).
	RequireNonEmpty bool
}

// Entries returns a lazy sequence of mappings in filesystem enumeration
// order. Iteration stops at the first error, which is yielded with a zero
// Entry. Directories matching the glob are skipped.
func (m Mapper) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if !doublestar.ValidatePattern(m.Glob) {
			yield(Entry{}, fmt.Errorf("%w: %q", ErrBadGlob, m.Glob))
			return
		}

		var claims *naming.OutputClaims
		if m.Layout == LayoutFlat {
			claims = naming.NewOutputClaims()
		}

		matched := 0
		err := doublestar.GlobWalk(os.DirFS(m.InputDir), m.Glob, func(rel string, d fs.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			matched++
			e := m.entry(rel)
			if claims != nil {
				e.Output = claims.Claim(e.Input, e.Output)
			}
			if !yield(e, nil) {
				return errStopWalk
			}
			return nil
		})
		switch {
		case errors.Is(err, errStopWalk):
			return
		case err != nil:
			yield(Entry{}, fmt.Errorf("glob %q under %s: %w", m.Glob, m.InputDir, err))
			return
		}

		if matched == 0 && m.RequireNonEmpty {
			yield(Entry{}, fmt.Errorf("%w: %q under %s", ErrEmptyInputSet, m.Glob, m.InputDir))
		}
	}
}

// Collect drains [Mapper.Entries] into a slice.
func (m Mapper) Collect() ([]Entry, error) {
	var out []Entry
	for e, err := range m.Entries() {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (m Mapper) entry(rel string) Entry {
	input := filepath.Join(m.InputDir, filepath.FromSlash(rel))
	var output string
	if m.Layout == LayoutFlat {
		output = naming.FlatOutputPath(m.OutputDir, input, m.Suffix)
	} else {
		output = naming.TreeOutputPath(m.OutputDir, rel, m.Suffix)
	}
	return Entry{Input: input, Output: output}
}
