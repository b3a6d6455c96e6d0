package nymarkable

import (
	"github.com/alnah/go-nymarkable/internal/config"
)

// Config holds every tunable of an Edition. See DefaultConfig.
type Config = config.Config

// DeviceConfig addresses the e-reader.
type DeviceConfig = config.DeviceConfig

// DefaultConfig returns the settings for the New York Times app and a
// reMarkable tablet on its USB network.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// ArticleRecord describes one printed article.
type ArticleRecord struct {
	Ordinal  int    // position in discovery order, starting at 0
	Section  string // title of the enclosing section
	Headline string
	Path     string // article PDF on disk
}

// Section is a top-level container of the edition. It is only valid for
// the browser session it was listed in.
type Section struct {
	Title string
	el    Element
}

// OutlineEntry is one bookmark of the merged document.
type OutlineEntry struct {
	Title    string
	Page     int // 0-based page offset
	Children []OutlineEntry
}

// AssembleResult describes a merged document.
type AssembleResult struct {
	Path    string
	Pages   int
	Outline []OutlineEntry
}

// EditionResult is returned by Edition.Create and Edition.UpdateDevice.
// Articles is empty when nothing was harvested, in which case nothing
// was written.
type EditionResult struct {
	Articles []ArticleRecord
	Output   string
	Pages    int
	Uploaded bool
}

// ProgressFunc reports assembly progress. done counts processed articles.
type ProgressFunc func(done, total int)
