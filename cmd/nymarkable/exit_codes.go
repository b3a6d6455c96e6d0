package main

import (
	"errors"
	"os"

	"github.com/alnah/go-nymarkable"
	"github.com/alnah/go-nymarkable/internal/config"
)

// Exit codes for the nymarkable CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run, or browser window closed by the user
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Profile directory, assembly, permissions
	ExitBrowser = 4 // Browser/Chrome errors, login not completed
	ExitNetwork = 5 // Device upload failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, nymarkable.ErrSessionClosed) {
		return ExitSuccess
	}

	// Upload errors (exit 5)
	if errors.Is(err, nymarkable.ErrUpload) {
		return ExitNetwork
	}

	// Browser errors (exit 4)
	if errors.Is(err, nymarkable.ErrBrowserConnect) ||
		errors.Is(err, nymarkable.ErrPageLoad) ||
		errors.Is(err, nymarkable.ErrPDFGeneration) ||
		errors.Is(err, nymarkable.ErrNotLoggedIn) ||
		errors.Is(err, nymarkable.ErrLoginAttemptsExhausted) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, nymarkable.ErrProfileDir) ||
		errors.Is(err, nymarkable.ErrAssemble) ||
		errors.Is(err, nymarkable.ErrCover) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigPath) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrInvalidValue) {
		return ExitUsage
	}

	return ExitGeneral
}
