package runner

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteReport prints a human-readable summary. Verbose output adds each
// case's synthesized header.
func WriteReport(w io.Writer, s *Summary, verbose bool) {
	for _, r := range s.Results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, r.Fixture, r.Duration.Round(time.Microsecond))

		if r.Err != nil {
			fmt.Fprintf(w, "    error: %v\n", r.Err)
		}
		if r.Diff != "" {
			writeIndented(w, r.Diff, "    ")
		}

		for _, c := range r.Cases {
			if c.Passed && !verbose {
				continue
			}
			mark := "ok"
			if !c.Passed {
				mark = "FAIL"
			}
			fmt.Fprintf(w, "  %s %s: expected %s, got %s\n", mark, c.Name(), c.Expected, c.Actual)
			if !c.Passed {
				for _, f := range c.Actual.Failures {
					fmt.Fprintf(w, "      %s\n", f.Message)
				}
				if c.Diff != "" {
					writeIndented(w, c.Diff, "    ")
				}
			}
			if verbose && c.Header != nil {
				writeIndented(w, c.Header.Render(), "    | ")
			}
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed", s.Passed(), s.Failed())
	if s.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", s.Skipped)
	}
	fmt.Fprintf(w, " (run %s)\n", s.RunID)
}

func writeIndented(w io.Writer, text, prefix string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s\n", prefix, line)
	}
}
