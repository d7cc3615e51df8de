package logging

import (
	"github.com/pterm/pterm"
)

// Progress renders a progress bar for a counted pass. A nil *Progress is
// valid and does nothing, which is what StartProgress returns when progress
// output is disabled.
type Progress struct {
	bar     *pterm.ProgressbarPrinter
	current int
}

// StartProgress starts a progress bar over total steps. It returns nil when
// the log level hides progress or there is nothing to count.
func StartProgress(title string, total int) *Progress {
	if total <= 0 || !Enabled(LogLevelInfo) {
		return nil
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		Debugf("progress bar unavailable: %v", err)
		return nil
	}
	return &Progress{bar: bar}
}

// Update advances the bar to processed steps.
func (p *Progress) Update(processed, total int) {
	if p == nil {
		return
	}
	if total != p.bar.Total {
		p.bar.Total = total
	}
	if delta := processed - p.current; delta > 0 {
		p.bar.Add(delta)
		p.current = processed
	}
}

// Stop removes the bar.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	p.bar.Stop()
}
