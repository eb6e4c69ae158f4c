package mcp

import (
	"github.com/mvp-joe/modcheck/internal/runner"
	"github.com/mvp-joe/modcheck/internal/storage"
)

// RunResponse is the JSON body returned by modcheck_run.
type RunResponse struct {
	RunID      string            `json:"run_id"`
	OK         bool              `json:"ok"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	DurationMS int64             `json:"duration_ms"`
	Fixtures   []FixtureResponse `json:"fixtures"`
}

// FixtureResponse describes one fixture outcome.
type FixtureResponse struct {
	Name   string         `json:"name"`
	Path   string         `json:"path"`
	Passed bool           `json:"passed"`
	Trace  []runner.Stage `json:"trace"`
	Error  string         `json:"error,omitempty"`
	Diff   string         `json:"diff,omitempty"`
	Cases  []CaseResponse `json:"cases,omitempty"`
}

// CaseResponse describes one checked target variant.
type CaseResponse struct {
	Name     string           `json:"name"`
	Passed   bool             `json:"passed"`
	Expected string           `json:"expected"`
	Actual   string           `json:"actual"`
	Failures []runner.Failure `json:"failures,omitempty"`
	Diff     string           `json:"diff,omitempty"`
	Header   string           `json:"header,omitempty"` // Rendered header, verbose only
}

// HistoryResponse is the JSON body returned by modcheck_history.
type HistoryResponse struct {
	Runs []HistoryRun `json:"runs"`
}

// HistoryRun is one stored run.
type HistoryRun struct {
	RunID      string `json:"run_id"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

func newRunResponse(s *runner.Summary, verbose bool) *RunResponse {
	resp := &RunResponse{
		RunID:      s.RunID,
		OK:         s.OK(),
		Passed:     s.Passed(),
		Failed:     s.Failed(),
		Skipped:    s.Skipped,
		DurationMS: s.Duration.Milliseconds(),
		Fixtures:   make([]FixtureResponse, 0, len(s.Results)),
	}

	for _, r := range s.Results {
		f := FixtureResponse{
			Name:   r.Fixture,
			Path:   r.Path,
			Passed: r.Passed(),
			Trace:  r.Trace,
			Diff:   r.Diff,
		}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		for _, c := range r.Cases {
			cr := CaseResponse{
				Name:     c.Name(),
				Passed:   c.Passed,
				Expected: c.Expected.String(),
				Actual:   c.Actual.String(),
				Failures: c.Actual.Failures,
				Diff:     c.Diff,
			}
			if verbose && c.Header != nil {
				cr.Header = c.Header.Render()
			}
			f.Cases = append(f.Cases, cr)
		}
		resp.Fixtures = append(resp.Fixtures, f)
	}
	return resp
}

func newHistoryRun(rec storage.RunRecord) HistoryRun {
	return HistoryRun{
		RunID:      rec.RunID,
		StartedAt:  rec.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		DurationMS: rec.Duration.Milliseconds(),
		Passed:     rec.Passed,
		Failed:     rec.Failed,
		Skipped:    rec.Skipped,
	}
}
