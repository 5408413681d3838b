package main

import (
	"fmt"
	"os"
)

// Status lines go to stderr so answers and document listings on stdout
// stay pipeable.

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func paint(style, text string) string {
	if noColor {
		return text
	}
	return style + text + ansiReset
}

func printMark(style, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(style, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printMark(ansiGreen, "✓", format, args...) }
func printError(format string, args ...any)   { printMark(ansiRed, "✗", format, args...) }
func printWarning(format string, args ...any) { printMark(ansiYellow, "⚠", format, args...) }
func printStep(format string, args ...any)    { printMark(ansiCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(ansiBold, label+":"), fmt.Sprintf(format, args...))
}

// roleLabel maps a chat role to the speaker label shown by history.
func roleLabel(role string) string {
	switch role {
	case "user":
		return paint(ansiCyan, "you")
	case "assistant":
		return paint(ansiGreen, "pdfchat")
	}
	return role
}

// shortID abbreviates a document id for listings. Ids shorter than the
// abbreviation are shown as-is.
func shortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return paint(ansiCyan, id)
}
