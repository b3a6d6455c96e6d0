package nymarkable

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/alnah/go-nymarkable/internal/datefmt"
	"github.com/alnah/go-nymarkable/internal/fileutil"
)

// coverCSS lays the table of contents out as a newspaper front page.
const coverCSS = `
body { font-family: Georgia, "Times New Roman", serif; margin: 0.6in; color: #111; }
h1 { font-size: 40pt; text-align: center; margin: 0; letter-spacing: 0.02em; }
.dateline { text-align: center; border-top: 1px solid #111; border-bottom: 3px double #111;
            padding: 4pt 0; margin: 8pt 0 18pt; font-size: 11pt; }
h2 { font-size: 14pt; text-transform: uppercase; margin: 14pt 0 4pt; }
ul { margin: 0; padding-left: 16pt; }
li { font-size: 11pt; line-height: 1.4; }
`

// markdownEscaper escapes characters goldmark would otherwise interpret.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`,
	`#`, `\#`, `|`, `\|`, `~`, `\~`, `&`, `\&`,
)

// listMarker matches an ordered list marker at the start of a line.
var listMarker = regexp.MustCompile(`^\d{1,9}[.)]`)

// escapeMarkdown escapes s for use as the text of a heading or list item.
// A leading "-", "+", "=" or "2024." would otherwise open a nested block.
func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(strings.TrimSpace(s))
	if loc := listMarker.FindStringIndex(s); loc != nil {
		return s[:loc[1]-1] + `\` + s[loc[1]-1:]
	}
	if s != "" && strings.ContainsRune("-+=", rune(s[0])) {
		return `\` + s
	}
	return s
}

// coverMarkdown lists each section run and its headlines, in order.
func coverMarkdown(title string, records []ArticleRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))

	current := ""
	for i, rec := range records {
		if i == 0 || rec.Section != current {
			current = rec.Section
			fmt.Fprintf(&b, "\n## %s\n\n", escapeMarkdown(bookmarkTitle(rec.Section)))
		}
		fmt.Fprintf(&b, "- %s\n", escapeMarkdown(bookmarkTitle(rec.Headline)))
	}
	return b.String()
}

// coverHTML renders the cover as a standalone HTML document.
func coverHTML(title, date string, records []ArticleRecord) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Typographer))

	var body bytes.Buffer
	if err := md.Convert([]byte(coverMarkdown(title, records)), &body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCover, err)
	}

	// The dateline goes right after the masthead.
	rendered := body.String()
	if date != "" {
		dateline := `<p class="dateline">` + html.EscapeString(date) + "</p>\n"
		if i := strings.Index(rendered, "</h1>"); i >= 0 {
			i += len("</h1>\n")
			if i > len(rendered) {
				i = len(rendered)
			}
			rendered = rendered[:i] + dateline + rendered[i:]
		}
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">\n<title>")
	doc.WriteString(html.EscapeString(title))
	doc.WriteString("</title>\n<style>")
	doc.WriteString(coverCSS)
	doc.WriteString("</style></head><body>\n")
	doc.WriteString(rendered)
	doc.WriteString("</body></html>\n")
	return doc.String(), nil
}

// renderCover prints the table of contents with the session's page and
// writes it to <dir>/cover.pdf. The page is navigated away from the edition.
func (e *Edition) renderCover(ctx context.Context, page Page, records []ArticleRecord, dir string) (string, error) {
	date, err := datefmt.Resolve(e.cfg.Output.CoverDate, e.now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCover, err)
	}

	doc, err := coverHTML(e.cfg.Output.CoverTitle, date, records)
	if err != nil {
		return "", err
	}

	htmlPath, cleanup, err := fileutil.WriteTempFile(dir, doc, "html")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCover, err)
	}
	defer cleanup()

	if err := page.Navigate(ctx, fileURL(htmlPath)); err != nil {
		return "", err
	}
	pdf, err := page.PrintPDF(ctx)
	if err != nil {
		return "", err
	}

	out := filepath.Join(dir, "cover.pdf")
	if err := os.WriteFile(out, pdf, 0o600); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCover, err)
	}
	return out, nil
}

// fileURL converts an absolute path to a file:// URL.
func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path // Windows drive letters
	}
	return u.String()
}
