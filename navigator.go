package nymarkable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// navigator opens the edition root and lists its sections.
type navigator struct {
	cfg *Config
	log *zap.Logger
}

// ListSections loads the application root and returns its top-level
// sections in document order. It fails with ErrNotLoggedIn before any DOM
// traversal when the auth cookie is missing.
func (n *navigator) ListSections(ctx context.Context, page Page) ([]Section, error) {
	if err := page.Navigate(ctx, n.cfg.Site.URL); err != nil {
		return nil, err
	}

	ok, err := page.HasCookie(ctx, n.cfg.Site.AuthCookie)
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no %s cookie", ErrNotLoggedIn, n.cfg.Site.AuthCookie)
	}

	if err := page.Settle(ctx, n.cfg.Timing.Settle); err != nil {
		return nil, err
	}
	if err := n.dismissOverlay(ctx, page); err != nil {
		return nil, err
	}

	if css := strings.TrimSpace(n.cfg.Print.CSS); css != "" {
		if err := page.AddStyle(ctx, css); err != nil {
			return nil, fmt.Errorf("injecting print stylesheet: %w", err)
		}
	}

	els, err := page.Elements(ctx, n.cfg.Selectors.Section)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(els))
	for _, el := range els {
		title, err := n.sectionTitle(ctx, el)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{Title: title, el: el})
	}
	n.log.Debug("sections listed", zap.Int("count", len(sections)))
	return sections, nil
}

// dismissOverlay clicks the "Click to Read" overlay when present.
func (n *navigator) dismissOverlay(ctx context.Context, page Page) error {
	if n.cfg.Selectors.Overlay == "" {
		return nil
	}
	el, ok, err := page.ElementByXPath(ctx, n.cfg.Selectors.Overlay)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := el.Click(ctx, n.cfg.Timing.ClickTimeout); err != nil {
		if !errors.Is(err, ErrElementInteraction) {
			return err
		}
		n.log.Warn("overlay not clickable", zap.Error(err))
		return nil
	}
	n.log.Debug("overlay dismissed")
	return page.Settle(ctx, n.cfg.Timing.OverlaySettle)
}

// sectionTitle returns "" for sections without a title element.
func (n *navigator) sectionTitle(ctx context.Context, section Element) (string, error) {
	el, ok, err := section.Element(ctx, n.cfg.Selectors.SectionTitle)
	if err != nil || !ok {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
