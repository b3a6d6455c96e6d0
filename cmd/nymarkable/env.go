package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-nymarkable"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// newEdition builds the pipeline. Tests replace it to avoid a browser.
	newEdition func(opts ...nymarkable.Option) (editionRunner, error)
}

// editionRunner is the part of *nymarkable.Edition the commands use.
type editionRunner interface {
	Login(ctx context.Context) error
	Sections(ctx context.Context) ([]string, error)
	Create(ctx context.Context, outputPath string, allow []string) (*nymarkable.EditionResult, error)
	UpdateDevice(ctx context.Context, device nymarkable.DeviceConfig, allow []string) (*nymarkable.EditionResult, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		newEdition: func(opts ...nymarkable.Option) (editionRunner, error) {
			return nymarkable.NewEdition(opts...)
		},
	}
}
