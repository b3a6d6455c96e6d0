package nymarkable

// Notes:
// - This file contains the fakes shared by the package tests: a Page backed
//   by an HTML fixture parsed with goquery, and a session opener that hands
//   out fake pages in order.
// - Fixture elements declare their behavior with data attributes:
//   data-fail="covered" makes Click fail with ErrElementInteraction,
//   data-fail="fatal" with a plain driver error, data-pages="N" sets the
//   page count printed after clicking the element.
// - Printed PDFs are real documents generated with gofpdf so the assembler
//   can read them.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"

	"github.com/alnah/go-nymarkable/internal/config"
)

// errDriver stands for an unrecoverable browser failure.
var errDriver = errors.New("driver crashed")

// editionFixture is a two-section edition: World has two articles of one
// page each, Business one article of two pages.
const editionFixture = `<html><body>
<div class="overlay"><h2>Click to Read</h2></div>
<div class="accordion-section">
  <div class="accordion-section-header-text">World</div>
  <div class="headline">Storm hits coast</div>
  <div class="headline">Summit ends</div>
</div>
<div class="accordion-section">
  <div class="accordion-section-header-text">Business</div>
  <div class="headline" data-pages="2">Markets rally</div>
</div>
</body></html>`

// overlayCSS is what the fake resolves the default overlay XPath to.
const overlayCSS = ".overlay h2"

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// testConfig returns defaults with every wait shortened and the home
// directory inside t.TempDir().
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.Timing = config.TimingConfig{
		LoginPoll:    time.Millisecond,
		ClickTimeout: time.Second,
	}
	return cfg
}

// ---------------------------------------------------------------------------
// PDF fixtures
// ---------------------------------------------------------------------------

// pdfBytes renders a document with the given number of pages.
func pdfBytes(t testing.TB, pages int, label string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 14)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("%s, page %d", label, i))
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("rendering fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// writePDF writes a fixture PDF to path.
func writePDF(t testing.TB, path string, pages int) {
	t.Helper()
	if err := os.WriteFile(path, pdfBytes(t, pages, path), 0o600); err != nil {
		t.Fatalf("writing fixture PDF: %v", err)
	}
}

// ---------------------------------------------------------------------------
// fakePage - Page backed by an HTML fixture
// ---------------------------------------------------------------------------

type fakePage struct {
	t   testing.TB
	doc *goquery.Document

	mu          sync.Mutex
	loggedIn    bool
	cookieAfter int   // HasCookie turns true on this check (0 = use loggedIn)
	cookieErr   error // returned by HasCookie
	closed      bool  // Alive fails
	scrollMax   float64

	navigations  []string
	clicks       []string
	styles       []string
	printed      []string
	cookieChecks int
	traversals   int
	scrolls      int
	scrollY      float64
	lastPages    int
	lastLabel    string
}

func newFakePage(t testing.TB, html string, loggedIn bool) *fakePage {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return &fakePage{t: t, doc: doc, loggedIn: loggedIn, lastPages: 1}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	p.lastPages, p.lastLabel = 1, url
	return nil
}

func (p *fakePage) HasCookie(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookieChecks++
	if p.cookieErr != nil {
		return false, p.cookieErr
	}
	if p.cookieAfter > 0 {
		return p.cookieChecks >= p.cookieAfter, nil
	}
	return p.loggedIn, nil
}

func (p *fakePage) Settle(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *fakePage) Elements(_ context.Context, selector string) ([]Element, error) {
	p.mu.Lock()
	p.traversals++
	p.mu.Unlock()
	return p.wrap(p.doc.Find(selector)), nil
}

func (p *fakePage) ElementByXPath(_ context.Context, xpath string) (Element, bool, error) {
	p.mu.Lock()
	p.traversals++
	p.mu.Unlock()
	if xpath != DefaultConfig().Selectors.Overlay {
		return nil, false, nil
	}
	sel := p.doc.Find(overlayCSS).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return &fakeElement{page: p, sel: sel}, true, nil
}

func (p *fakePage) ScrollY(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollY, nil
}

func (p *fakePage) ScrollViewport(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	p.scrollY = min(p.scrollY+100, p.scrollMax)
	return nil
}

func (p *fakePage) AddStyle(_ context.Context, css string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.traversals++
	p.styles = append(p.styles, css)
	return nil
}

func (p *fakePage) PrintPDF(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	pages, label := p.lastPages, p.lastLabel
	p.printed = append(p.printed, label)
	p.mu.Unlock()
	return pdfBytes(p.t, pages, label), nil
}

func (p *fakePage) Alive(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("target closed")
	}
	return nil
}

func (p *fakePage) wrap(sel *goquery.Selection) []Element {
	var els []Element
	sel.Each(func(_ int, s *goquery.Selection) {
		els = append(els, &fakeElement{page: p, sel: s})
	})
	return els
}

// fakeElement is a goquery selection of one node.
type fakeElement struct {
	page *fakePage
	sel  *goquery.Selection
}

func (e *fakeElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

// label names the element in recorded clicks: the section title for
// section containers, the text otherwise.
func (e *fakeElement) label() string {
	if title := e.sel.Find(".accordion-section-header-text").First(); title.Length() > 0 {
		return "section:" + strings.TrimSpace(title.Text())
	}
	return strings.TrimSpace(e.sel.Text())
}

func (e *fakeElement) Click(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e.sel.AttrOr("data-fail", "") {
	case "covered":
		return fmt.Errorf("%w: element covered by <div class=\"ad\">", ErrElementInteraction)
	case "fatal":
		return errDriver
	}

	p := e.page
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, e.label())
	p.lastLabel = e.label()
	p.lastPages = 1
	if n, err := strconv.Atoi(e.sel.AttrOr("data-pages", "")); err == nil {
		p.lastPages = n
	}
	return nil
}

func (e *fakeElement) Elements(_ context.Context, selector string) ([]Element, error) {
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *fakeElement) Element(_ context.Context, selector string) (Element, bool, error) {
	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return &fakeElement{page: e.page, sel: sel}, true, nil
}

// ---------------------------------------------------------------------------
// fakeBrowser - Hands out fake sessions in order
// ---------------------------------------------------------------------------

type fakeSession struct {
	page   *fakePage
	closed bool
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeBrowser struct {
	pages    []*fakePage
	headful  []bool
	sessions []*fakeSession
	openErr  error
}

func (b *fakeBrowser) open(ctx context.Context, _ *Config, headful bool) (browserSession, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.sessions) >= len(b.pages) {
		return nil, fmt.Errorf("unexpected session #%d", len(b.sessions)+1)
	}
	s := &fakeSession{page: b.pages[len(b.sessions)]}
	b.sessions = append(b.sessions, s)
	b.headful = append(b.headful, headful)
	return s, nil
}

// allClosed reports whether every opened session was closed.
func (b *fakeBrowser) allClosed() bool {
	for _, s := range b.sessions {
		if !s.closed {
			return false
		}
	}
	return true
}

// newTestEdition builds an Edition on a fake browser.
func newTestEdition(t *testing.T, cfg *Config, b *fakeBrowser, opts ...Option) *Edition {
	t.Helper()
	opts = append([]Option{
		WithConfig(cfg),
		withSessionOpener(b.open),
		withNow(func() time.Time { return time.Date(2026, time.October, 19, 6, 0, 0, 0, time.UTC) }),
	}, opts...)
	e, err := NewEdition(opts...)
	if err != nil {
		t.Fatalf("NewEdition() error = %v", err)
	}
	return e
}
