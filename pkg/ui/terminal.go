package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ASCIILogo is printed above interactive runs
const ASCIILogo = `
    ╔══════════════════════════════════════════════╗
    ║   ▄▀█ █▀█ █ █▀ █▀▀ █▀█ ▄▀█ █▀█ █▀▀ █▀█      ║
    ║   █▀█ █▀▀ █ ▄█ █▄▄ █▀▄ █▀█ █▀▀ ██▄ █▀▄      ║
    ║      TWITTER · INDEED · YELP SEARCH          ║
    ╚══════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// Status lines go to stderr so stdout stays clean for result output.
var (
	mu        sync.Mutex
	out       io.Writer = os.Stderr
	quietMode bool
	// nil follows whether out is a terminal
	colorMode *bool
)

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetColor forces colors on or off regardless of the output writer
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorMode = &enabled
}

// ResetColor returns to coloring only when the output is a terminal
func ResetColor() {
	mu.Lock()
	defer mu.Unlock()
	colorMode = nil
}

func colorsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	if colorMode != nil {
		return *colorMode
	}
	return IsTerminal(out)
}

// SetOutput redirects status lines, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// colorize returns a function that wraps text with ANSI color codes when
// colors are enabled and returns it unchanged otherwise
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorsEnabled() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func emit(force bool, s string) {
	mu.Lock()
	defer mu.Unlock()
	if quietMode && !force {
		return
	}
	fmt.Fprintln(out, s)
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	logo := Cyan(ASCIILogo)
	mu.Lock()
	defer mu.Unlock()
	if !quietMode {
		fmt.Fprint(out, logo)
	}
}

// PrintError prints an error message in red. It is shown even in quiet mode.
func PrintError(msg string, args ...interface{}) {
	emit(true, Red(withArg(msg, args)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(false, Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	emit(false, Yellow(withArg(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(false, Magenta(msg))
}
