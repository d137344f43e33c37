package display

import (
	"fmt"
	"io"

	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/term"
)

// PrintBanner prints the ASCII art banner and version; uses Magenta if
// colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `        _     _
 __   _(_) __| | ___ ___  _ ____   __
 \ \ / / |/ _`+"`"+` |/ __/ _ \| '_ \ \ / /
  \ V /| | (_| | (_| (_) | | | \ V /
   \_/ |_|\__,_|\___\___/|_| |_|\_/
`)
	fmt.Fprint(w, term.NC)
	fmt.Fprintf(w, "   v%s\n\n", config.Version)
}
