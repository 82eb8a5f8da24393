package display

import (
	"fmt"
	"io"

	"github.com/backmassage/dicommake/internal/term"
)

const banner = `     _ _                                      _
  __| (_) ___ ___  _ __ ___  _ __ ___   __ _| | _____
 / _` + "`" + ` | |/ __/ _ \| '_ ` + "`" + ` _ \| '_ ` + "`" + ` _ \ / _` + "`" + ` | |/ / _ \
| (_| | | (_| (_) | | | | | | | | | | | (_| |   <  __/
 \__,_|_|\___\___/|_| |_| |_|_| |_| |_|\__,_|_|\_\___|
`

// PrintBanner prints the ASCII art banner to w.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, term.Paint(term.RoleBanner, banner))
}
