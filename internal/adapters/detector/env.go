// Package detector provides environment detection for output mode selection.
package detector

import (
	"os"

	"go.trai.ch/mkd/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the full-screen viewer.
	ModeTUI
	// ModeLinear forces plain output suitable for pipes and CI.
	ModeLinear
)

// DetectEnvironment returns the recommended output mode based on the environment.
// The viewer needs a terminal on both stdin and stdout and a capable TERM.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
	return Detect(isTTY, os.Getenv)
}

// Detect picks a mode from the terminal state and environment lookup.
func Detect(isTTY bool, getenv func(string) string) OutputMode {
	ci := getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI || getenv("TERM") == "dumb" {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the configured output mode to auto-detection.
// mode should be one of domain.OutputModeAuto, domain.OutputModeTUI or domain.OutputModeLinear.
func ResolveMode(autoDetected OutputMode, mode string) OutputMode {
	switch mode {
	case domain.OutputModeTUI:
		return ModeTUI
	case domain.OutputModeLinear:
		return ModeLinear
	default:
		return autoDetected
	}
}
