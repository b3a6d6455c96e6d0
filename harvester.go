package nymarkable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/fileutil"
)

// maxSectionNameBytes caps the section part of an article file name so
// the headline keeps most of the room.
const maxSectionNameBytes = 64

// harvester prints every headline of the allowed sections to PDF.
type harvester struct {
	cfg *Config
	log *zap.Logger
}

// Harvest expands each allowed section, clicks each of its headlines and
// prints the resulting article view into dir. An empty allow list means
// every section. Records are returned in discovery order with contiguous
// ordinals starting at 0.
func (h *harvester) Harvest(ctx context.Context, page Page, sections []Section, allow []string, dir string) ([]ArticleRecord, error) {
	var records []ArticleRecord

	for _, section := range sections {
		if !sectionAllowed(section.Title, allow) {
			h.log.Info("skipping section", zap.String("section", section.Title))
			continue
		}

		log := h.log.With(zap.String("section", section.Title))
		log.Info("harvesting section")

		if err := section.el.Click(ctx, h.cfg.Timing.ClickTimeout); err != nil {
			if !errors.Is(err, ErrElementInteraction) {
				return nil, err
			}
			log.Warn("section not clickable, skipping", zap.Error(err))
			continue
		}
		if err := page.Settle(ctx, h.cfg.Timing.SectionSettle); err != nil {
			return nil, err
		}
		if !h.cfg.Harvest.DisableScroll {
			if err := h.scrollToEnd(ctx, page); err != nil {
				return nil, err
			}
		}

		headlines, err := section.el.Elements(ctx, h.cfg.Selectors.Headline)
		if err != nil {
			return nil, err
		}

		for _, headline := range headlines {
			rec, ok, err := h.printArticle(ctx, page, headline, section.Title, len(records), dir, log)
			if err != nil {
				return nil, err
			}
			if ok {
				records = append(records, rec)
			}
		}
	}

	return records, nil
}

// printArticle opens one headline and writes its PDF. ok is false when the
// headline could not be clicked.
func (h *harvester) printArticle(ctx context.Context, page Page, headline Element, section string, ordinal int, dir string, log *zap.Logger) (ArticleRecord, bool, error) {
	text, err := headline.Text(ctx)
	if err != nil {
		return ArticleRecord{}, false, err
	}
	text = strings.TrimSpace(text)

	if err := headline.Click(ctx, h.cfg.Timing.ClickTimeout); err != nil {
		if !errors.Is(err, ErrElementInteraction) {
			return ArticleRecord{}, false, err
		}
		log.Warn("headline not clickable, skipping", zap.String("headline", text), zap.Error(err))
		return ArticleRecord{}, false, nil
	}
	if err := page.Settle(ctx, h.cfg.Timing.ArticleSettle); err != nil {
		return ArticleRecord{}, false, err
	}

	pdf, err := page.PrintPDF(ctx)
	if err != nil {
		return ArticleRecord{}, false, err
	}

	path := filepath.Join(dir, articleFileName(ordinal, section, text))
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		return ArticleRecord{}, false, fmt.Errorf("writing article: %w", err)
	}

	log.Info("article saved", zap.Int("ordinal", ordinal), zap.String("headline", text))
	return ArticleRecord{
		Ordinal:  ordinal,
		Section:  section,
		Headline: text,
		Path:     path,
	}, true, nil
}

// scrollToEnd scrolls one viewport at a time until the page stops moving,
// so lazily loaded images are fetched before printing.
func (h *harvester) scrollToEnd(ctx context.Context, page Page) error {
	last, err := page.ScrollY(ctx)
	if err != nil {
		return err
	}
	for step := 0; step < h.cfg.Harvest.MaxScrollSteps; step++ {
		if err := page.ScrollViewport(ctx); err != nil {
			return err
		}
		if err := sleep(ctx, h.cfg.Timing.ScrollPause); err != nil {
			return err
		}
		y, err := page.ScrollY(ctx)
		if err != nil {
			return err
		}
		if y <= last {
			return nil
		}
		last = y
	}
	h.log.Debug("scroll limit reached", zap.Int("steps", h.cfg.Harvest.MaxScrollSteps))
	return nil
}

// sectionAllowed reports whether title passes the allow list.
// Matching is exact.
func sectionAllowed(title string, allow []string) bool {
	return len(allow) == 0 || slices.Contains(allow, title)
}

// articleFileName builds "%04d_<section>_<headline>.pdf" with both titles
// made safe as a single path component and kept under the file name limit.
func articleFileName(ordinal int, section, headline string) string {
	const ext = ".pdf"
	prefix := fmt.Sprintf("%04d_", ordinal)

	section = fileutil.TruncateUTF8(fileutil.SanitizeName(section), maxSectionNameBytes)
	room := fileutil.MaxNameBytes - len(prefix) - len(section) - len("_") - len(ext)
	headline = fileutil.TruncateUTF8(fileutil.SanitizeName(headline), room)

	return prefix + section + "_" + headline + ext
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
