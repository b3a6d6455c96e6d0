package nymarkable

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable/internal/hints"
)

// defaultUploadTimeout bounds a device upload when no client is injected.
const defaultUploadTimeout = 2 * time.Minute

// deviceOutputName is the assembled file inside the work dir before upload.
const deviceOutputName = "output.pdf"

// Edition runs the retrieve, print, assemble and upload pipeline.
// Each call opens its own browser sessions and closes them before returning.
type Edition struct {
	cfg      *Config
	log      *zap.Logger
	client   *http.Client
	progress ProgressFunc
	open     sessionOpener
	now      func() time.Time
}

// NewEdition creates an Edition with DefaultConfig unless WithConfig is given.
// Returns an error if the configuration is invalid.
func NewEdition(opts ...Option) (*Edition, error) {
	e := &Edition{
		cfg:    DefaultConfig(),
		log:    zap.NewNop(),
		client: &http.Client{Timeout: defaultUploadTimeout},
		open:   openRodSession,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the configuration in use.
func (e *Edition) Config() *Config {
	return e.cfg
}

// Sections returns the titles of the edition's sections, logging in first
// if needed.
func (e *Edition) Sections(ctx context.Context) ([]string, error) {
	nav := &navigator{cfg: e.cfg, log: e.log}

	var titles []string
	err := e.withLoggedInPage(ctx, func(ctx context.Context, page Page) error {
		sections, err := nav.ListSections(ctx, page)
		if err != nil {
			return err
		}
		titles = make([]string, len(sections))
		for i, s := range sections {
			titles[i] = s.Title
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// Create harvests the allowed sections (all when allow is empty, falling
// back to Config.Harvest.Sections) and writes the merged edition to
// outputPath. When nothing was harvested, the result has no articles and
// no file is written.
func (e *Edition) Create(ctx context.Context, outputPath string, allow []string) (*EditionResult, error) {
	work, cleanup, err := e.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.build(ctx, work, outputPath, allow)
}

// UpdateDevice builds the edition in a scoped work dir and uploads it to
// the device. Uploaded is false when nothing was harvested.
func (e *Edition) UpdateDevice(ctx context.Context, device DeviceConfig, allow []string) (*EditionResult, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}

	work, cleanup, err := e.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res, err := e.build(ctx, work, filepath.Join(work, deviceOutputName), allow)
	if err != nil || len(res.Articles) == 0 {
		return res, err
	}

	up := &uploader{client: e.client, log: e.log}
	if err := up.Upload(ctx, res.Output, device.Address, device.Filename); err != nil {
		return res, err
	}
	res.Uploaded = true
	return res, nil
}

// build runs harvest and assembly. Article PDFs and the cover go to work.
func (e *Edition) build(ctx context.Context, work, outputPath string, allow []string) (*EditionResult, error) {
	if len(allow) == 0 {
		allow = e.cfg.Harvest.Sections
	}

	nav := &navigator{cfg: e.cfg, log: e.log}
	harv := &harvester{cfg: e.cfg, log: e.log}

	var (
		records []ArticleRecord
		cover   string
	)
	err := e.withLoggedInPage(ctx, func(ctx context.Context, page Page) error {
		sections, err := nav.ListSections(ctx, page)
		if err != nil {
			return err
		}
		records, err = harv.Harvest(ctx, page, sections, allow, work)
		if err != nil {
			return err
		}
		if len(records) > 0 && e.cfg.Output.Cover {
			cover, err = e.renderCover(ctx, page, records, work)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		e.log.Info("no articles found")
		return &EditionResult{}, nil
	}

	asm := &assembler{log: e.log, progress: e.progress}
	res, err := asm.assemble(ctx, cover, records, outputPath)
	if err != nil {
		return nil, err
	}

	return &EditionResult{
		Articles: records,
		Output:   res.Path,
		Pages:    res.Pages,
	}, nil
}

// workDir creates a scoped temporary directory under the config home.
func (e *Edition) workDir() (string, func(), error) {
	home, err := e.cfg.HomeDir()
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return "", nil, fmt.Errorf("creating %s: %w%s", home, err, hints.ForOutputDirectory())
	}

	dir, err := os.MkdirTemp(home, "edition-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating work directory: %w", err)
	}
	e.log.Debug("work directory", zap.String("path", dir))

	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			e.log.Warn("removing work directory", zap.String("path", dir), zap.Error(err))
		}
	}, nil
}
