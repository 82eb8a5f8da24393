// Package term decides whether console output is colored and paints text
// by role.
//
// The color decision is process-wide: [Configure] runs once during startup
// and every later [Paint] call follows it. With colors off, Paint returns
// its input unchanged.
package term

import (
	"os"
	"strings"
	"sync/atomic"

	xterm "golang.org/x/term"

	"github.com/backmassage/dicommake/internal/config"
)

// Role names what a colored span means rather than which color it gets.
type Role int

const (
	RoleInfo Role = iota
	RoleSuccess
	RoleWarn
	RoleError
	RoleDebug
	RoleBanner
)

// SGR parameters per role (bold, bright foreground).
var sgr = [...]string{
	RoleInfo:    "1;94",
	RoleSuccess: "1;92",
	RoleWarn:    "1;93",
	RoleError:   "1;91",
	RoleDebug:   "1;96",
	RoleBanner:  "1;95",
}

const reset = "\033[0m"

var enabled atomic.Bool

// Configure resolves mode against out (normally os.Stdout) and the
// environment, records the decision and returns it.
func Configure(mode config.ColorMode, out *os.File) bool {
	on := resolve(mode, out)
	enabled.Store(on)
	return on
}

// Enabled reports whether colors are active.
func Enabled() bool { return enabled.Load() }

// Paint wraps s in the escape sequence for r when colors are active.
func Paint(r Role, s string) string {
	if !enabled.Load() || s == "" || int(r) < 0 || int(r) >= len(sgr) {
		return s
	}
	return "\033[" + sgr[r] + "m" + s + reset
}

// resolve honours NO_COLOR (https://no-color.org) and TERM=dumb in auto mode.
func resolve(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return IsTerminal(out) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return xterm.IsTerminal(int(f.Fd()))
}
