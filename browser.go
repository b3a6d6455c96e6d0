package nymarkable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/alnah/go-nymarkable/internal/hints"
	"github.com/alnah/go-nymarkable/internal/process"
)

// Compile-time interface checks
var (
	_ Page           = (*rodPage)(nil)
	_ Element        = (*rodElement)(nil)
	_ browserSession = (*rodSession)(nil)
	_ sessionOpener  = openRodSession
)

// Window geometry used for every session. Articles are laid out for a
// desktop viewport.
const windowSize = "1920,1080"

const (
	// domStableWindow is how long the DOM must stay unchanged to count
	// as settled.
	domStableWindow = 500 * time.Millisecond
	// exitGrace bounds the wait for the browser to exit on its own after
	// a graceful close, so the profile is flushed before we kill it.
	exitGrace = 3 * time.Second
)

// rodSession implements browserSession using go-rod.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rodPage
}

// openRodSession launches a browser bound to the persistent profile and
// opens a stealth tab.
func openRodSession(ctx context.Context, cfg *Config, headful bool) (browserSession, error) {
	dir, err := cfg.ProfileDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileDir, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrProfileDir, err, hints.ForProfileDir(dir))
	}

	l := newLauncher(ctx, cfg, dir, headful)
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		if isProfileError(err) {
			return nil, fmt.Errorf("%w: %v%s", ErrProfileDir, err, hints.ForProfileDir(dir))
		}
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	s := &rodSession{launcher: l}
	s.browser = rod.New().ControlURL(u)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	p, err := stealth.Page(s.browser)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: opening tab: %v", ErrBrowserConnect, err)
	}
	s.page = &rodPage{page: p}
	return s, nil
}

// newLauncher configures the browser process.
func newLauncher(ctx context.Context, cfg *Config, profileDir string, headful bool) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		UserDataDir(profileDir).
		Headless(!headful).
		Set("window-size", windowSize).
		Delete("enable-automation")

	bin := cfg.Browser.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}
	return l
}

// isProfileError reports whether a launch failure is caused by the
// profile directory rather than the browser binary.
func isProfileError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"user-data-dir",
		"user data directory",
		"profile directory",
		"prefs file",
		"ProcessSingleton",
		"SingletonLock",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (s *rodSession) Page() Page {
	return s.page
}

// Close shuts the browser down gracefully, then kills whatever is left of
// its process group. The profile is left on disk.
func (s *rodSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		pid := s.launcher.PID()
		process.WaitExit(pid, exitGrace)
		process.KillProcessGroup(pid)
		s.launcher.Kill()
		s.launcher = nil
	}
	return err
}

// rodPage implements Page using go-rod.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPageLoad, url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPageLoad, url, err)
	}
	return nil
}

func (p *rodPage) HasCookie(ctx context.Context, name string) (bool, error) {
	cookies, err := p.page.Context(ctx).Cookies(nil)
	if err != nil {
		return false, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (p *rodPage) Settle(ctx context.Context, limit time.Duration) error {
	if limit <= 0 {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	err := p.page.Context(sctx).WaitDOMStable(domStableWindow, 0)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (p *rodPage) ElementByXPath(ctx context.Context, xpath string) (Element, bool, error) {
	ok, el, err := p.page.Context(ctx).HasX(xpath)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rodElement{el: el}, true, nil
}

func (p *rodPage) ScrollY(ctx context.Context) (float64, error) {
	res, err := p.page.Context(ctx).Eval(`() => window.scrollY`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *rodPage) ScrollViewport(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(`() => window.scrollBy(0, window.innerHeight)`)
	return err
}

func (p *rodPage) AddStyle(ctx context.Context, css string) error {
	return p.page.Context(ctx).AddStyleTag("", css)
}

func (p *rodPage) PrintPDF(ctx context.Context) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %w", ErrPDFGeneration, err)
	}
	return buf, nil
}

func (p *rodPage) Alive(ctx context.Context) error {
	_, err := p.page.Context(ctx).Info()
	return err
}

// rodElement implements Element using go-rod.
type rodElement struct {
	el *rod.Element
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Click(ctx context.Context, timeout time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el := e.el.Context(cctx)
	if err := el.ScrollIntoView(); err != nil {
		return classifyClickError(ctx, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classifyClickError(ctx, err)
	}
	return nil
}

func (e *rodElement) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (e *rodElement) Element(ctx context.Context, selector string) (Element, bool, error) {
	ok, el, err := e.el.Context(ctx).Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rodElement{el: el}, true, nil
}

// classifyClickError wraps failures that leave the page usable with
// ErrElementInteraction. ctx is the caller's context: a deadline that only
// hit the click timeout is an interaction failure, a cancelled caller is not.
func classifyClickError(ctx context.Context, err error) error {
	var (
		covered      *rod.CoveredError
		notInteract  *rod.NotInteractableError
		invisible    *rod.InvisibleShapeError
		noPointerEvt *rod.NoPointerEventsError
	)
	switch {
	case errors.As(err, &covered),
		errors.As(err, &notInteract),
		errors.As(err, &invisible),
		errors.As(err, &noPointerEvt):
		return fmt.Errorf("%w: %w", ErrElementInteraction, err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return fmt.Errorf("%w: click timed out: %w", ErrElementInteraction, err)
	}
	return err
}
