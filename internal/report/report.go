// Package report renders check results to the console: one colored pass/fail
// line per URL while results are walked, then an aggregate summary with the
// failing URLs repeated at the end.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/daniel/sitecheck/internal/checker"
)

const ruleWidth = 50

// Summary aggregates a finished run for the exit-code decision and for
// recording to history.
type Summary struct {
	Total  int
	Passed int
	Failed int

	// FailedResults holds every non-passing result, in input order.
	FailedResults []checker.Result
}

// Printer writes the run report to a single writer. It is not safe for
// concurrent use; the reporting phase is single-threaded by design.
type Printer struct {
	w     io.Writer
	green *color.Color
	red   *color.Color
}

// NewPrinter creates a Printer on w. Color is enabled only when w is a
// terminal; NO_COLOR and forceOff both disable it.
func NewPrinter(w io.Writer, forceOff bool) *Printer {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if forceOff || !writerIsTerminal(w) {
		green.DisableColor()
		red.DisableColor()
	}

	return &Printer{w: w, green: green, red: red}
}

// writerIsTerminal reports whether w is a TTY that supports color. The
// color package's NoColor already folds in the NO_COLOR convention.
func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Header prints the run banner and the collected URL count.
func (p *Printer) Header(baseURL string, count int) {
	fmt.Fprintf(p.w, "Testing URLs against: %s\n", baseURL)
	fmt.Fprintln(p.w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(p.w, "\nCollected %d URLs to test\n", count)
	fmt.Fprintln(p.w, strings.Repeat("-", ruleWidth))
}

// Results prints one line per result in input order and returns the summary.
func (p *Printer) Results(results []checker.Result) Summary {
	s := Summary{Total: len(results)}

	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(p.w, "%s %s\n", p.green.Sprint("✓"), r.URL)
			s.Passed++
			continue
		}

		errMsg := ""
		if r.Err != nil {
			errMsg = fmt.Sprintf(", err: %v", r.Err)
			if errors.Is(r.Err, checker.ErrRequestTimeout) {
				errMsg = ", err: request timeout"
			}
		}
		fmt.Fprintf(p.w, "%s %s (status: %d%s)\n", p.red.Sprint("✗"), r.URL, r.Status, errMsg)
		s.Failed++
		s.FailedResults = append(s.FailedResults, r)
	}

	return s
}

// Summary prints the aggregate counts and, when anything failed, the final
// enumerated list of failing URLs.
func (p *Printer) Summary(s Summary) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(p.w, "Results: %s, %s\n",
		p.green.Sprintf("%d passed", s.Passed),
		p.red.Sprintf("%d failed", s.Failed))

	if s.Failed > 0 {
		fmt.Fprintln(p.w, "\nFailed URLs:")
		for _, r := range s.FailedResults {
			fmt.Fprintf(p.w, "  - %s (status: %d)\n", r.URL, r.Status)
		}
	}
}
