package nymarkable

// Notes:
// - Harvest tests run against the goquery fake; clicking a headline does not
//   change the DOM, so the printed PDF is tied to the last clicked element.
// - Real click failures (covered, invisible, timeout) are classified in
//   browser.go and covered by the integration tests; here the fake returns
//   ErrElementInteraction directly.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/fileutil"
)

// harvestFixture lists sections from html and harvests them.
func harvestFixture(t *testing.T, page *fakePage, allow []string) ([]ArticleRecord, string, error) {
	t.Helper()
	cfg := testConfig(t)
	nav := &navigator{cfg: cfg, log: zap.NewNop()}
	sections, err := nav.ListSections(context.Background(), page)
	if err != nil {
		t.Fatalf("ListSections() error = %v", err)
	}
	dir := t.TempDir()
	h := &harvester{cfg: cfg, log: zap.NewNop()}
	records, err := h.Harvest(context.Background(), page, sections, allow, dir)
	return records, dir, err
}

// ---------------------------------------------------------------------------
// TestHarvest - Allow list and ordinals
// ---------------------------------------------------------------------------

func TestHarvest_AllowListSubset(t *testing.T) {
	t.Parallel()

	page := newFakePage(t, editionFixture, true)
	records, dir, err := harvestFixture(t, page, []string{"World"})
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for i, rec := range records {
		if rec.Ordinal != i {
			t.Errorf("records[%d].Ordinal = %d, want %d", i, rec.Ordinal, i)
		}
		if rec.Section != "World" {
			t.Errorf("records[%d].Section = %q, want World", i, rec.Section)
		}
		if filepath.Dir(rec.Path) != dir {
			t.Errorf("records[%d].Path = %q, want inside %q", i, rec.Path, dir)
		}
		if !fileutil.FileExists(rec.Path) {
			t.Errorf("records[%d].Path %q was not written", i, rec.Path)
		}
	}
	if records[0].Headline != "Storm hits coast" || records[1].Headline != "Summit ends" {
		t.Errorf("headlines = %q, %q", records[0].Headline, records[1].Headline)
	}
	if slices.Contains(page.clicks, "section:Business") {
		t.Error("Business section should not be expanded")
	}
}

func TestHarvest_EmptyAllowListTakesAll(t *testing.T) {
	t.Parallel()

	page := newFakePage(t, editionFixture, true)
	records, _, err := harvestFixture(t, page, nil)
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}

	want := []struct {
		section, headline, file string
	}{
		{"World", "Storm hits coast", "0000_World_Storm hits coast.pdf"},
		{"World", "Summit ends", "0001_World_Summit ends.pdf"},
		{"Business", "Markets rally", "0002_Business_Markets rally.pdf"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		rec := records[i]
		if rec.Ordinal != i || rec.Section != w.section || rec.Headline != w.headline {
			t.Errorf("records[%d] = %+v, want ordinal %d %s/%s", i, rec, i, w.section, w.headline)
		}
		if got := filepath.Base(rec.Path); got != w.file {
			t.Errorf("records[%d] file = %q, want %q", i, got, w.file)
		}
	}

	wantClicks := []string{
		"Click to Read",
		"section:World", "Storm hits coast", "Summit ends",
		"section:Business", "Markets rally",
	}
	if !slices.Equal(page.clicks, wantClicks) {
		t.Errorf("clicks = %q, want %q", page.clicks, wantClicks)
	}
}

func TestHarvest_UnknownAllowedSectionYieldsNothing(t *testing.T) {
	t.Parallel()

	page := newFakePage(t, editionFixture, true)
	records, dir, err := harvestFixture(t, page, []string{"Sports"})
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d files written, want 0", len(entries))
	}
}

// ---------------------------------------------------------------------------
// TestHarvest - Interaction failures
// ---------------------------------------------------------------------------

func TestHarvest_SkipsUninteractableHeadline(t *testing.T) {
	t.Parallel()

	html := `<div class="accordion-section">
  <div class="accordion-section-header-text">World</div>
  <div class="headline">First</div>
  <div class="headline" data-fail="covered">Behind an ad</div>
  <div class="headline">Third</div>
</div>`
	page := newFakePage(t, html, true)
	records, _, err := harvestFixture(t, page, nil)
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Headline != "First" || records[1].Headline != "Third" {
		t.Errorf("headlines = %q, %q, want First, Third", records[0].Headline, records[1].Headline)
	}
	if records[1].Ordinal != 1 {
		t.Errorf("ordinal after skip = %d, want 1", records[1].Ordinal)
	}
	if !strings.HasPrefix(filepath.Base(records[1].Path), "0001_") {
		t.Errorf("file after skip = %q, want 0001_ prefix", records[1].Path)
	}
}

func TestHarvest_SkipsUninteractableSection(t *testing.T) {
	t.Parallel()

	html := `<div class="accordion-section" data-fail="covered">
  <div class="accordion-section-header-text">World</div>
  <div class="headline">Hidden</div>
</div>
<div class="accordion-section">
  <div class="accordion-section-header-text">Arts</div>
  <div class="headline">Shown</div>
</div>`
	page := newFakePage(t, html, true)
	records, _, err := harvestFixture(t, page, nil)
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}
	if len(records) != 1 || records[0].Headline != "Shown" || records[0].Ordinal != 0 {
		t.Errorf("records = %+v, want only Arts/Shown at ordinal 0", records)
	}
}

func TestHarvest_DriverErrorIsFatal(t *testing.T) {
	t.Parallel()

	html := `<div class="accordion-section">
  <div class="accordion-section-header-text">World</div>
  <div class="headline">First</div>
  <div class="headline" data-fail="fatal">Crash</div>
</div>`
	page := newFakePage(t, html, true)
	records, _, err := harvestFixture(t, page, nil)
	if !errors.Is(err, errDriver) {
		t.Fatalf("Harvest() error = %v, want driver error", err)
	}
	if errors.Is(err, ErrElementInteraction) {
		t.Error("driver error must not be classified as an interaction failure")
	}
	if records != nil {
		t.Errorf("records = %v, want nil on fatal error", records)
	}
}

func TestHarvest_CancelledContext(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	page := newFakePage(t, editionFixture, true)
	nav := &navigator{cfg: cfg, log: zap.NewNop()}
	sections, err := nav.ListSections(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &harvester{cfg: cfg, log: zap.NewNop()}
	_, err = h.Harvest(ctx, page, sections, nil, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Harvest() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestScrollToEnd - Lazy image loading
// ---------------------------------------------------------------------------

func TestScrollToEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		scrollMax   float64
		maxSteps    int
		wantScrolls int
	}{
		{name: "already at bottom", scrollMax: 0, maxSteps: 10, wantScrolls: 1},
		{name: "stops when position stalls", scrollMax: 250, maxSteps: 10, wantScrolls: 4},
		{name: "bounded by max steps", scrollMax: 1e9, maxSteps: 5, wantScrolls: 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.Harvest.MaxScrollSteps = tt.maxSteps
			page := newFakePage(t, "<html></html>", true)
			page.scrollMax = tt.scrollMax

			h := &harvester{cfg: cfg, log: zap.NewNop()}
			if err := h.scrollToEnd(context.Background(), page); err != nil {
				t.Fatalf("scrollToEnd() error = %v", err)
			}
			if page.scrolls != tt.wantScrolls {
				t.Errorf("scrolls = %d, want %d", page.scrolls, tt.wantScrolls)
			}
		})
	}
}

func TestHarvest_ScrollDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Harvest.DisableScroll = true
	page := newFakePage(t, editionFixture, true)
	page.scrollMax = 1000

	nav := &navigator{cfg: cfg, log: zap.NewNop()}
	sections, err := nav.ListSections(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}
	h := &harvester{cfg: cfg, log: zap.NewNop()}
	if _, err := h.Harvest(context.Background(), page, sections, nil, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if page.scrolls != 0 {
		t.Errorf("scrolls = %d, want 0", page.scrolls)
	}
}

// ---------------------------------------------------------------------------
// TestArticleFileName - Safe, bounded names
// ---------------------------------------------------------------------------

func TestArticleFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ordinal  int
		section  string
		headline string
		want     string
	}{
		{"plain", 0, "World", "Storm hits coast", "0000_World_Storm hits coast.pdf"},
		{"padded ordinal", 42, "Arts", "Review", "0042_Arts_Review.pdf"},
		{"wide ordinal", 12345, "Arts", "Review", "12345_Arts_Review.pdf"},
		{"separator in section", 1, "U.S./Politics", "Vote", "0001_U.S._Politics_Vote.pdf"},
		{"separator in headline", 2, "World", `Either/or\neither`, "0002_World_Either_or_neither.pdf"},
		{"nul byte", 3, "World", "a\x00b", "0003_World_a_b.pdf"},
		{"empty titles", 4, "", "", "0004__.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := articleFileName(tt.ordinal, tt.section, tt.headline); got != tt.want {
				t.Errorf("articleFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArticleFileName_LongTitles(t *testing.T) {
	t.Parallel()

	section := strings.Repeat("Section ", 20)
	headline := strings.Repeat("Très long titre ", 40)

	got := articleFileName(7, section, headline)

	if len(got) > fileutil.MaxNameBytes {
		t.Errorf("len = %d, want <= %d", len(got), fileutil.MaxNameBytes)
	}
	if !utf8.ValidString(got) {
		t.Error("file name is not valid UTF-8")
	}
	if !strings.HasPrefix(got, "0007_Section") || !strings.HasSuffix(got, ".pdf") {
		t.Errorf("unexpected shape: %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestSectionAllowed
// ---------------------------------------------------------------------------

func TestSectionAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		allow []string
		want  bool
	}{
		{"World", nil, true},
		{"World", []string{}, true},
		{"World", []string{"World"}, true},
		{"World", []string{"Business"}, false},
		{"world", []string{"World"}, false},
		{"", []string{"World"}, false},
	}

	for _, tt := range tests {
		if got := sectionAllowed(tt.title, tt.allow); got != tt.want {
			t.Errorf("sectionAllowed(%q, %v) = %v, want %v", tt.title, tt.allow, got, tt.want)
		}
	}
}
