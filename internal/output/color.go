package output

import (
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "always", "never" or "auto" to a ColorMode.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// ColorizeSavings colors a line by the number of bytes saved: green when the
// file shrank, gray when it did not change, yellow when it grew.
func ColorizeSavings(saved int, line string) string {
	switch {
	case saved > 0:
		return colorGreen + line + colorReset
	case saved == 0:
		return colorGray + line + colorReset
	default:
		return colorYellow + line + colorReset
	}
}

func (wr *Writer) savings(saved int, line string) string {
	if !wr.colorize {
		return line
	}
	return ColorizeSavings(saved, line)
}

func (wr *Writer) failure(text string) string {
	if !wr.colorize {
		return text
	}
	return colorRed + text + colorReset
}

func (wr *Writer) bold(text string) string {
	if !wr.colorize {
		return text
	}
	return colorBold + text + colorReset
}
