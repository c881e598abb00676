package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress shows a progress bar for a batch of candidate matches.
type Progress struct {
	bar  *progressbar.ProgressBar
	mu   sync.Mutex
	done int
}

// NewProgress creates a progress bar writing to w.
func NewProgress(w io.Writer, total int, description string) *Progress {
	p := &Progress{}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Update moves the bar to done. It matches engine.ProgressFunc.
func (p *Progress) Update(done, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if done <= p.done {
		return
	}
	if err := p.bar.Add(done - p.done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.done = done
}

// Done returns the last reported count.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish completes the bar.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
