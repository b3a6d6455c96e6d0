package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigPath = errors.New("config path cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file too large")
	ErrInvalidValue    = errors.New("invalid config value")
)

// MaxConfigSize caps the YAML input read from disk.
const MaxConfigSize = 1 << 20

// Default locations relative to the user's home directory.
const (
	DefaultHomeName    = ".nymarkable"
	DefaultFileName    = "config.yaml"
	DefaultProfileName = "browser_profile"
	HomeEnvVar         = "NYMARKABLE_HOME"
)

// Login attempt bounds.
const (
	DefaultLoginAttempts = 3
	MaxLoginAttempts     = 20
)

// Config holds all settings for one invocation.
type Config struct {
	Home      string          `yaml:"home"` // Empty = $NYMARKABLE_HOME or ~/.nymarkable
	Site      SiteConfig      `yaml:"site"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Timing    TimingConfig    `yaml:"timing"`
	Login     LoginConfig     `yaml:"login"`
	Harvest   HarvestConfig   `yaml:"harvest"`
	Browser   BrowserConfig   `yaml:"browser"`
	Print     PrintConfig     `yaml:"print"`
	Output    OutputConfig    `yaml:"output"`
	Device    DeviceConfig    `yaml:"device"`
}

// SiteConfig identifies the newspaper application.
type SiteConfig struct {
	URL        string `yaml:"url"`
	AuthCookie string `yaml:"authCookie"` // present only when logged in
}

// SelectorsConfig locates edition elements in the DOM.
type SelectorsConfig struct {
	Section      string `yaml:"section"`      // CSS
	SectionTitle string `yaml:"sectionTitle"` // CSS, relative to section
	Headline     string `yaml:"headline"`     // CSS, relative to section
	Overlay      string `yaml:"overlay"`      // XPath of the "Click to Read" overlay
}

// TimingConfig bounds every wait in the pipeline.
type TimingConfig struct {
	LoginPoll     time.Duration `yaml:"loginPoll"`
	Settle        time.Duration `yaml:"settle"`
	OverlaySettle time.Duration `yaml:"overlaySettle"`
	SectionSettle time.Duration `yaml:"sectionSettle"`
	ScrollPause   time.Duration `yaml:"scrollPause"`
	ArticleSettle time.Duration `yaml:"articleSettle"`
	ClickTimeout  time.Duration `yaml:"clickTimeout"`
}

// LoginConfig bounds the interactive login loop.
type LoginConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	Timeout     time.Duration `yaml:"timeout"` // 0 = wait until the window is closed
}

// HarvestConfig controls article collection.
type HarvestConfig struct {
	Sections       []string `yaml:"sections"` // allow-list, empty = all
	DisableScroll  bool     `yaml:"disableScroll"`
	MaxScrollSteps int      `yaml:"maxScrollSteps"`
}

// BrowserConfig controls the automated browser.
type BrowserConfig struct {
	Headful    bool   `yaml:"headful"`    // show the window while harvesting
	Bin        string `yaml:"bin"`        // Empty = ROD_BROWSER_BIN or auto-detect
	ProfileDir string `yaml:"profileDir"` // Empty = <home>/browser_profile
}

// PrintConfig holds the stylesheet injected before printing articles.
type PrintConfig struct {
	CSS string `yaml:"css"`
}

// OutputConfig controls the assembled document.
type OutputConfig struct {
	Cover      bool   `yaml:"cover"`
	CoverTitle string `yaml:"coverTitle"`
	CoverDate  string `yaml:"coverDate"` // "auto", "auto:FORMAT" or literal
}

// DeviceConfig addresses the e-reader's USB web interface.
type DeviceConfig struct {
	Address  string `yaml:"address"`
	Filename string `yaml:"filename"`
}

// DefaultPrintCSS forces article images to render in print media.
const DefaultPrintCSS = `@media print {
    .main-asset,
    .asset,
    .thumbnails {
        display: block !important;
    }
}`

// DefaultConfig returns the settings for the New York Times app and a
// reMarkable tablet on its USB network.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			URL:        "https://app.nytimes.com/",
			AuthCookie: "NYT-S",
		},
		Selectors: SelectorsConfig{
			Section:      ".accordion-section",
			SectionTitle: ".accordion-section-header-text",
			Headline:     ".headline",
			Overlay:      `//div[@class = "overlay"]/h2[text() = "Click to Read"]`,
		},
		Timing: TimingConfig{
			LoginPoll:     time.Second,
			Settle:        5 * time.Second,
			OverlaySettle: 3 * time.Second,
			SectionSettle: 2 * time.Second,
			ScrollPause:   100 * time.Millisecond,
			ArticleSettle: time.Second,
			ClickTimeout:  5 * time.Second,
		},
		Login: LoginConfig{
			MaxAttempts: DefaultLoginAttempts,
		},
		Harvest: HarvestConfig{
			MaxScrollSteps: 500,
		},
		Print: PrintConfig{
			CSS: DefaultPrintCSS,
		},
		Output: OutputConfig{
			CoverTitle: "The New York Times",
			CoverDate:  "auto:long",
		},
		Device: DeviceConfig{
			Address:  "10.11.99.1",
			Filename: "nytimes.pdf",
		},
	}
}

// HomeDir resolves the configuration directory: Config.Home, then
// $NYMARKABLE_HOME, then ~/.nymarkable.
func (c *Config) HomeDir() (string, error) {
	if c.Home != "" {
		return expandHome(c.Home)
	}
	return DefaultHome()
}

// ProfileDir resolves the persistent browser profile directory.
func (c *Config) ProfileDir() (string, error) {
	if c.Browser.ProfileDir != "" {
		return expandHome(c.Browser.ProfileDir)
	}
	home, err := c.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultProfileName), nil
}

// DefaultHome returns $NYMARKABLE_HOME or ~/.nymarkable.
func DefaultHome() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return expandHome(dir)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, DefaultHomeName), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, strings.TrimPrefix(path, "~")), nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Site.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: site.url must be an http(s) URL, got %q", ErrInvalidValue, c.Site.URL)
	}
	if c.Site.AuthCookie == "" {
		return fmt.Errorf("%w: site.authCookie is required", ErrInvalidValue)
	}

	selectors := []struct {
		name, value string
	}{
		{"selectors.section", c.Selectors.Section},
		{"selectors.sectionTitle", c.Selectors.SectionTitle},
		{"selectors.headline", c.Selectors.Headline},
	}
	for _, s := range selectors {
		if strings.TrimSpace(s.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidValue, s.name)
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"timing.loginPoll", c.Timing.LoginPoll},
		{"timing.settle", c.Timing.Settle},
		{"timing.overlaySettle", c.Timing.OverlaySettle},
		{"timing.sectionSettle", c.Timing.SectionSettle},
		{"timing.scrollPause", c.Timing.ScrollPause},
		{"timing.articleSettle", c.Timing.ArticleSettle},
		{"timing.clickTimeout", c.Timing.ClickTimeout},
		{"login.timeout", c.Login.Timeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, d.name, d.value)
		}
	}
	if c.Timing.LoginPoll == 0 {
		return fmt.Errorf("%w: timing.loginPoll must be positive", ErrInvalidValue)
	}
	if c.Timing.ClickTimeout == 0 {
		return fmt.Errorf("%w: timing.clickTimeout must be positive", ErrInvalidValue)
	}

	if c.Login.MaxAttempts < 1 || c.Login.MaxAttempts > MaxLoginAttempts {
		return fmt.Errorf("%w: login.maxAttempts must be between 1 and %d, got %d",
			ErrInvalidValue, MaxLoginAttempts, c.Login.MaxAttempts)
	}
	if c.Harvest.MaxScrollSteps < 1 {
		return fmt.Errorf("%w: harvest.maxScrollSteps must be positive, got %d", ErrInvalidValue, c.Harvest.MaxScrollSteps)
	}

	return c.Device.Validate()
}

// host strips an optional "http://" scheme and trailing slashes.
func (d DeviceConfig) host() string {
	return strings.TrimRight(strings.TrimPrefix(strings.TrimSpace(d.Address), "http://"), "/")
}

// BaseURL returns the device's web interface URL without trailing slash.
// "10.11.99.1", "10.11.99.1:80" and "http://10.11.99.1/" are accepted.
func (d DeviceConfig) BaseURL() string {
	return "http://" + d.host()
}

// Validate checks the device address and remote file name.
func (d DeviceConfig) Validate() error {
	if d.Address == "" {
		return fmt.Errorf("%w: device.address is required", ErrInvalidValue)
	}
	if host := d.host(); host == "" || strings.ContainsAny(host, "/ ") {
		return fmt.Errorf("%w: device.address must be host, host:port or http://host, got %q", ErrInvalidValue, d.Address)
	}
	if d.Filename == "" {
		return fmt.Errorf("%w: device.filename is required", ErrInvalidValue)
	}
	if strings.ContainsAny(d.Filename, "/\\\x00") {
		return fmt.Errorf("%w: device.filename must not contain path separators, got %q", ErrInvalidValue, d.Filename)
	}
	return nil
}

// Load reads a config file on top of DefaultConfig.
// Unknown keys are rejected. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyConfigPath
	}

	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, info.Size(), MaxConfigSize)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads the explicit path when given. Otherwise it loads
// <home>/config.yaml if that file exists, or returns the defaults.
func Resolve(explicitPath string) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := Load(explicitPath)
		return cfg, explicitPath, err
	}

	home, err := DefaultHome()
	if err != nil {
		return nil, "", err
	}
	implicit := filepath.Join(home, DefaultFileName)
	if _, err := os.Stat(implicit); err == nil {
		cfg, err := Load(implicit)
		return cfg, implicit, err
	}

	return DefaultConfig(), "", nil
}
