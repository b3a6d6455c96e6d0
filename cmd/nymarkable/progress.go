package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// progressReporter draws the assembly progress bar. The bar is created on
// the first update because the page count is unknown until then.
type progressReporter struct {
	w      io.Writer
	hidden bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, quiet bool) *progressReporter {
	return &progressReporter{w: w, hidden: quiet}
}

// Update matches nymarkable.ProgressFunc.
func (p *progressReporter) Update(done, total int) {
	if p.hidden || total <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Assembling"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.w)
			}),
		)
	}
	_ = p.bar.Set(done)
}

// finish closes an unfinished bar so later output starts on a clean line.
func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil && !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
}
