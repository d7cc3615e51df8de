// Package logging prints console messages at a configurable level.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// Enumeration of the log levels, quietest first.
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only errors
	LogLevelWarning        // errors and warnings
	LogLevelInfo           // errors, warnings, progress and the closing summary (DEFAULT)
	LogLevelDebug          // everything, including absorbed errors
)

var levelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warning": LogLevelWarning,
	"info":    LogLevelInfo,
	"debug":   LogLevelDebug,
}

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = pterm.FgLightCyan
	infoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

var (
	mu    sync.Mutex
	level = LogLevelInfo
)

// out receives the tagged messages.
var out io.Writer = os.Stdout

// ParseLevel maps a level name to its value.
func ParseLevel(name string) (int, error) {
	lvl, ok := levelNames[name]
	if !ok {
		return LogLevelInfo, fmt.Errorf("unknown log level %q (want silent, error, warning, info or debug)", name)
	}
	return lvl, nil
}

// Initialize sets the global log level.
func Initialize(lvl int) {
	mu.Lock()
	defer mu.Unlock()

	level = lvl
	if lvl >= LogLevelDebug {
		pterm.EnableDebugMessages()
	} else {
		pterm.DisableDebugMessages()
	}
}

// Enabled reports whether messages at lvl are displayed.
func Enabled(lvl int) bool {
	mu.Lock()
	defer mu.Unlock()
	return level >= lvl
}

// Error prints an error with a tag banner.
func Error(tag string, err error) {
	if !Enabled(LogLevelError) {
		return
	}
	banner(errorStyleBG, errorColorFG, tag, err.Error())
}

// Warn prints a warning with a tag banner.
func Warn(tag, msg string) {
	if !Enabled(LogLevelWarning) {
		return
	}
	banner(warnStyleBG, warnColorFG, tag, msg)
}

// Info prints an informational message with a tag banner.
func Info(tag, msg string) {
	if !Enabled(LogLevelInfo) {
		return
	}
	banner(infoStyleBG, infoColorFG, tag, msg)
}

// Success prints the closing message of a successful run.
func Success(tag, msg string) {
	if !Enabled(LogLevelInfo) {
		return
	}
	banner(successStyleBG, successColorFG, tag, msg)
}

func banner(style *pterm.Style, color pterm.Color, tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, style.Sprint(tag)+color.Sprint(" "+msg))
}

// Debugf prints a debug message. Absorbed errors are reported here.
func Debugf(format string, args ...any) {
	if !Enabled(LogLevelDebug) {
		return
	}
	pterm.Debug.Printfln(format, args...)
}
