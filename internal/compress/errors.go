package compress

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

// Error is a failed compressor invocation.
type Error struct {
	Command string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("compressor failed: %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("compressor failed: %s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the compressor's exit status, or -1 when it did not
// exit normally (not found, killed).
func (e *Error) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Hint returns a short remediation hint for known diagnostics, or "".
func (e *Error) Hint() string {
	switch {
	case MatchUnsupportedSyntax(e.Stderr):
		return "compressor does not support this pixel encoding"
	case MatchMissingInput(e.Stderr):
		return "compressor could not read its input"
	case e.ExitCode() == -1:
		return "compressor did not run; check --compressor and PATH"
	}
	return ""
}

// Pre-compiled patterns for common dcmcjpeg diagnostics.
var (
	reUnsupportedSyntax = regexp.MustCompile(
		`(?i)(unsupported|cannot change to) transfer syntax|no conversion to transfer syntax`)
	reMissingInput = regexp.MustCompile(
		`(?i)no such file or directory|file not found|cannot open file`)
)

// MatchUnsupportedSyntax reports whether stderr says the codec cannot
// handle the input encoding.
func MatchUnsupportedSyntax(stderr string) bool {
	return reUnsupportedSyntax.MatchString(stderr)
}

// MatchMissingInput reports whether stderr says the input could not be
// opened.
func MatchMissingInput(stderr string) bool {
	return reMissingInput.MatchString(stderr)
}
