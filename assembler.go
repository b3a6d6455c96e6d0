package nymarkable

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/fileutil"
	"github.com/alnah/go-nymarkable/internal/hints"
)

// untitled replaces empty bookmark titles.
const untitled = "Untitled"

var disableConfigDir sync.Once

// pdfConfig returns a pdfcpu configuration that never touches the user's
// config directory and tolerates the quirks of browser-printed PDFs.
func pdfConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// assembler merges article PDFs into one outlined document.
type assembler struct {
	log      *zap.Logger
	progress ProgressFunc
}

// Assemble merges the records' PDFs in ordinal order into outputPath and
// writes a two-level outline: one bookmark per section run, one child per
// article. The records slice is not modified.
func (a *assembler) Assemble(ctx context.Context, records []ArticleRecord, outputPath string) (*AssembleResult, error) {
	return a.assemble(ctx, "", records, outputPath)
}

// assemble is Assemble with an optional cover PDF placed first. Bookmark
// offsets are shifted by the cover's page count.
func (a *assembler) assemble(ctx context.Context, cover string, records []ArticleRecord, outputPath string) (*AssembleResult, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(x, y ArticleRecord) int {
		return cmp.Compare(x.Ordinal, y.Ordinal)
	})

	conf := pdfConfig()

	offset := 0
	inputs := make([]string, 0, len(sorted)+1)
	if cover != "" {
		n, err := api.PageCountFile(cover)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrAssemble, cover, err)
		}
		offset = n
		inputs = append(inputs, cover)
	}

	counts := make([]int, len(sorted))
	for i, rec := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := api.PageCountFile(rec.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrAssemble, rec.Path, err)
		}
		counts[i] = n
		inputs = append(inputs, rec.Path)
		a.report(i+1, len(sorted))
	}

	outline := buildOutline(sorted, counts, offset)

	if err := fileutil.EnsureParentDir(outputPath); err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrAssemble, err, hints.ForOutputDirectory())
	}

	merged := inputs[0]
	if len(inputs) > 1 {
		tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".nymarkable-merge-*.pdf")
		if err != nil {
			return nil, fmt.Errorf("%w: %v%s", ErrAssemble, err, hints.ForOutputDirectory())
		}
		merged = tmp.Name()
		_ = tmp.Close()
		defer func() { _ = os.Remove(merged) }()

		a.log.Debug("merging", zap.Int("files", len(inputs)), zap.String("tmp", merged))
		if err := api.MergeCreateFile(inputs, merged, false, conf); err != nil {
			return nil, fmt.Errorf("%w: merging: %v", ErrAssemble, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeOutlined(merged, outputPath, outline, conf); err != nil {
		_ = os.Remove(outputPath)
		return nil, fmt.Errorf("%w: writing outline: %v", ErrAssemble, err)
	}

	pages, err := api.PageCountFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrAssemble, outputPath, err)
	}

	a.log.Info("edition assembled",
		zap.String("path", outputPath),
		zap.Int("articles", len(sorted)),
		zap.Int("pages", pages))

	return &AssembleResult{
		Path:    outputPath,
		Pages:   pages,
		Outline: outline,
	}, nil
}

func (a *assembler) report(done, total int) {
	if a.progress != nil {
		a.progress(done, total)
	}
}

// buildOutline groups consecutive records of the same section.
// counts[i] is the page count of sorted[i]; offset is the page where the
// first article starts. Records of one section that are not adjacent
// produce separate section entries.
func buildOutline(sorted []ArticleRecord, counts []int, offset int) []OutlineEntry {
	var outline []OutlineEntry
	page := offset

	for i, rec := range sorted {
		if len(outline) == 0 || outline[len(outline)-1].Title != rec.Section {
			outline = append(outline, OutlineEntry{Title: rec.Section, Page: page})
		}
		group := &outline[len(outline)-1]
		group.Children = append(group.Children, OutlineEntry{Title: rec.Headline, Page: page})
		page += counts[i]
	}
	return outline
}

// writeOutlined copies src to dst with outline as its only outline.
// Every item carries an explicit [page /Fit] destination; pdfcpu's own
// bookmark writer keys destinations by title, which sends repeated titles
// to the first page that used them.
func writeOutlined(src, dst string, outline []OutlineEntry, conf *model.Configuration) error {
	f, err := os.Open(src) // #nosec G304 -- src is our own merge output
	if err != nil {
		return err
	}
	defer f.Close()

	conf.Cmd = model.ADDBOOKMARKS
	doc, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return err
	}
	if _, err := pdfcpu.RemoveBookmarks(doc); err != nil {
		return err
	}

	root, err := doc.Catalog()
	if err != nil {
		return err
	}
	outlines := types.Dict{"Type": types.Name("Outlines")}
	ref, err := doc.IndRefForNewObject(outlines)
	if err != nil {
		return err
	}
	first, last, count, err := outlineItems(doc, outline, *ref)
	if err != nil {
		return err
	}
	if first != nil {
		outlines["First"] = *first
		outlines["Last"] = *last
		outlines["Count"] = types.Integer(count)
	}
	root["Outlines"] = *ref

	return api.WriteContextFile(doc, dst)
}

// outlineItems writes one level of outline items under parent, linked
// through Prev/Next, and returns the first and last item with the number
// of open descendants.
func outlineItems(doc *model.Context, entries []OutlineEntry, parent types.IndirectRef) (first, last *types.IndirectRef, count int, err error) {
	var prev types.Dict
	for _, entry := range entries {
		_, page, _, err := doc.PageDict(entry.Page+1, false)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("page %d for %q: %w", entry.Page+1, entry.Title, err)
		}
		title, err := types.EscapeUTF16String(bookmarkTitle(entry.Title))
		if err != nil {
			return nil, nil, 0, err
		}

		item := types.Dict{
			"Title":  types.StringLiteral(*title),
			"Parent": parent,
			"Dest":   types.Array{*page, types.Name("Fit")},
		}
		ref, err := doc.IndRefForNewObject(item)
		if err != nil {
			return nil, nil, 0, err
		}
		count++

		if len(entry.Children) > 0 {
			kidFirst, kidLast, n, err := outlineItems(doc, entry.Children, *ref)
			if err != nil {
				return nil, nil, 0, err
			}
			item["First"] = *kidFirst
			item["Last"] = *kidLast
			item["Count"] = types.Integer(n)
			count += n
		}

		if prev != nil {
			item["Prev"] = *last
			prev["Next"] = *ref
		}
		if first == nil {
			first = ref
		}
		prev, last = item, ref
	}
	return first, last, count, nil
}

func bookmarkTitle(s string) string {
	if s == "" {
		return untitled
	}
	return s
}
