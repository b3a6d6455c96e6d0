package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alnah/go-nymarkable"
	"github.com/alnah/go-nymarkable/internal/config"
	"github.com/alnah/go-nymarkable/internal/hints"
)

// runContext carries what every browser command needs.
type runContext struct {
	env      *Environment
	flags    *commandFlags
	cfg      *config.Config
	log      *zap.Logger
	progress *progressReporter
	edition  editionRunner
}

// newRunContext resolves configuration and builds the pipeline.
func newRunContext(flags *commandFlags, env *Environment) (*runContext, error) {
	cfg, path, err := loadConfig(flags.common.config, env.Stderr)
	if err != nil {
		return nil, err
	}
	applyFlags(flags, cfg)

	log := newLogger(env.Stderr, flags.common)
	if path != "" {
		log.Debug("config loaded", zap.String("path", path))
	}

	progress := newProgress(env.Stderr, flags.common.quiet)
	ed, err := env.newEdition(
		nymarkable.WithConfig(cfg),
		nymarkable.WithLogger(log),
		nymarkable.WithProgress(progress.Update),
	)
	if err != nil {
		return nil, err
	}

	return &runContext{
		env:      env,
		flags:    flags,
		cfg:      cfg,
		log:      log,
		progress: progress,
		edition:  ed,
	}, nil
}

func (rc *runContext) close() {
	rc.progress.finish()
	_ = rc.log.Sync()
}

// loadConfig resolves the config file. Precedence: --config, then
// NYMARKABLE_CONFIG, then <home>/config.yaml if present, then defaults.
// Environment overrides are applied on top. Returns the file used, if any.
func loadConfig(flagPath string, stderr io.Writer) (*config.Config, string, error) {
	if err := loadDotEnv(); err != nil {
		return nil, "", err
	}
	warnUnknownEnvVars(stderr)
	envCfg := loadEnvConfig(stderr)

	path := flagPath
	if path == "" {
		path = envCfg.ConfigPath
	}

	cfg, used, err := config.Resolve(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, "", fmt.Errorf("%w%s", err, hints.ForConfigNotFound(defaultConfigPaths()))
		}
		return nil, "", err
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, used, nil
}

// defaultConfigPaths lists where an implicit config file is looked up.
func defaultConfigPaths() []string {
	home, err := config.DefaultHome()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, config.DefaultFileName)}
}

// applyFlags applies command-line flags, the highest precedence source.
func applyFlags(f *commandFlags, cfg *config.Config) {
	if f.harvest.headful {
		cfg.Browser.Headful = true
	}
	if len(f.harvest.sections) > 0 {
		cfg.Harvest.Sections = f.harvest.sections
	}
	if f.harvest.cover {
		cfg.Output.Cover = true
	}
	if f.device.address != "" {
		cfg.Device.Address = f.device.address
	}
	if f.device.filename != "" {
		cfg.Device.Filename = f.device.filename
	}
}
