package nymarkable

import (
	"context"
	"time"
)

// Page is the browser tab the pipeline drives. The rod-backed
// implementation lives in browser.go; tests use an HTML-fixture fake.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// HasCookie reports whether a cookie with the given name is set for
	// the current document.
	HasCookie(ctx context.Context, name string) (bool, error)
	// Settle waits until the DOM stops changing, at most limit.
	// Running out of time is not an error.
	Settle(ctx context.Context, limit time.Duration) error
	Elements(ctx context.Context, selector string) ([]Element, error)
	// ElementByXPath returns the first match, or ok=false.
	ElementByXPath(ctx context.Context, xpath string) (el Element, ok bool, err error)
	ScrollY(ctx context.Context) (float64, error)
	// ScrollViewport scrolls down by one viewport height.
	ScrollViewport(ctx context.Context) error
	AddStyle(ctx context.Context, css string) error
	PrintPDF(ctx context.Context) ([]byte, error)
	// Alive returns an error once the tab or its window is gone.
	Alive(ctx context.Context) error
}

// Element is a DOM node of a Page.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Click scrolls the element into view and clicks it. Failures caused by
	// the element being covered, hidden or not interactable before timeout
	// wrap ErrElementInteraction.
	Click(ctx context.Context, timeout time.Duration) error
	Elements(ctx context.Context, selector string) ([]Element, error)
	// Element returns the first descendant matching selector, or ok=false.
	Element(ctx context.Context, selector string) (el Element, ok bool, err error)
}

// browserSession owns one browser process and its tab.
type browserSession interface {
	Page() Page
	Close() error
}

// sessionOpener starts a browser on the configured profile.
type sessionOpener func(ctx context.Context, cfg *Config, headful bool) (browserSession, error)
