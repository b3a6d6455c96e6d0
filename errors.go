package nymarkable

import "errors"

// Sentinel errors for library operations.
var (
	// Session errors.
	ErrNotLoggedIn            = errors.New("not logged in")
	ErrSessionClosed          = errors.New("browser window closed")
	ErrLoginAttemptsExhausted = errors.New("login attempts exhausted")
	ErrProfileDir             = errors.New("browser profile directory not writable")
	ErrBrowserConnect         = errors.New("failed to connect to browser")
	ErrPageLoad               = errors.New("failed to load page")

	// Harvest errors.
	ErrElementInteraction = errors.New("element not interactable")
	ErrPDFGeneration      = errors.New("PDF generation failed")
	ErrNoRecords          = errors.New("no articles to assemble")

	// Output errors.
	ErrAssemble = errors.New("failed to assemble edition")
	ErrCover    = errors.New("cover page rendering failed")
	ErrUpload   = errors.New("upload to device failed")
)
