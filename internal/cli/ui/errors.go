package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func levelColors(level ErrorLevel) (*color.Color, *color.Color, string) {
	switch level {
	case ErrorLevelWarning:
		return color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case ErrorLevelInfo:
		return color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	}
	return color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	✗ PROPERTY NOT SET: 1 of the properties of node-1 could not be set
//	   - "colr.r": not found
//
//	   Did you mean: color.r?
//
//	   → Inspect first: creatorbridge get node-1
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor, bodyColor, symbol := levelColors(opts.Level)
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, d := range opts.Details {
		bodyColor.Fprintf(&b, "   - %s\n", d)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// InstanceNotFoundError reports an id no node, component, asset or settings
// kind answers to
func InstanceNotFoundError(id string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "INSTANCE NOT FOUND",
		Problem:     fmt.Sprintf("Nothing answers to '%s'.", id),
		Suggestions: suggestions,
		HelpCommands: []string{
			"Scene globals: creatorbridge get CurrentSceneGlobals",
			"Project settings: creatorbridge get ProjectSettings",
		},
		NoColor: noColor,
	})
}

// SetFailedError lists the paths of a partial set. The other paths were
// written.
func SetFailedError(id string, failures []string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "PROPERTY NOT SET",
		Problem:      fmt.Sprintf("%d of the properties of %s could not be set.", len(failures), id),
		Details:      failures,
		Suggestions:  suggestions,
		HelpCommands: []string{"Inspect first: creatorbridge get " + id, "Check types: creatorbridge definition " + id},
		NoColor:      noColor,
	})
}

// EditorUnavailableError reports that no editor answered
func EditorUnavailableError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "EDITOR UNAVAILABLE",
		Problem: message,
		HelpCommands: []string{
			"Start a simulated editor: creatorbridge simulate",
			"Or serve without a bridge: creatorbridge serve --editor sim",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "CONFIGURATION ERROR",
		Problem:      message,
		HelpCommands: []string{"Check creatorbridge.yaml and CREATORBRIDGE_* variables"},
		NoColor:      noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
