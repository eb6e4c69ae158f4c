package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/modcheck/internal/runner"
)

// progressReporter draws a progress bar while fixtures run.
// The runner serializes OnFixtureDone calls.
type progressReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer) *progressReporter {
	return &progressReporter{w: w}
}

func (p *progressReporter) OnRunStart(total int) {
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("Checking fixtures"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("fixtures/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

func (p *progressReporter) OnFixtureDone(*runner.Result) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *progressReporter) OnRunComplete(*runner.Summary) {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
