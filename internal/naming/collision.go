package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// OutputClaims records which input owns each output path of a flat layout.
// Two inputs with the same base name in different directories would
// otherwise land on one output; the later claimant gets a numbered variant
// ("scan.dcm", "scan_2.dcm", "scan_3.dcm", ...). Safe for concurrent use.
type OutputClaims struct {
	mu    sync.Mutex
	owner map[string]string // output path → owning input
}

// NewOutputClaims returns an empty claim registry.
func NewOutputClaims() *OutputClaims {
	return &OutputClaims{owner: make(map[string]string)}
}

// Claim returns the output path reserved for input. Claiming the same
// output again from the same input is idempotent.
func (c *OutputClaims) Claim(input, output string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.take(input, output) {
		return output
	}
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if c.take(input, candidate) {
			return candidate
		}
	}
}

func (c *OutputClaims) take(input, output string) bool {
	if prev, ok := c.owner[output]; ok && prev != input {
		return false
	}
	c.owner[output] = input
	return true
}
