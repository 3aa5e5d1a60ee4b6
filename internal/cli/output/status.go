package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// Success prints a confirmation line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Fail prints an error line.
func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", failColor.Sprint("✗"), fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("!"), fmt.Sprintf(format, args...))
}

// DisableColor turns off ANSI colors, e.g. for --no-color.
func DisableColor() {
	color.NoColor = true
}
