// Package harness runs submitted code against declared test cases and reports
// how many of them pass.
package harness

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// ErrNoTestCases is returned when a run is requested without any test case.
var ErrNoTestCases = errors.New("no test cases declared")

// Status classifies the outcome of a single test case.
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusErrored  Status = "errored"
	StatusTimedOut Status = "timed_out"
)

// TestCase pairs an input with the output the submitted code must produce.
// Input is passed as keyword arguments when it is an object, as a single
// positional argument otherwise, and omitted entirely when nil.
type TestCase struct {
	Input    any    `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// UnmarshalJSON accepts non-string expected values and stores their JSON form.
func (t *TestCase) UnmarshalJSON(data []byte) error {
	var raw struct {
		Input    any             `json:"input"`
		Expected json.RawMessage `json:"expected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Input = raw.Input
	t.Expected = ""
	if len(raw.Expected) == 0 || string(raw.Expected) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw.Expected, &text); err == nil {
		t.Expected = text
		return nil
	}
	t.Expected = string(raw.Expected)
	return nil
}

// CaseResult records what happened to one test case.
type CaseResult struct {
	Index    int           `json:"index"`
	Status   Status        `json:"status"`
	Input    any           `json:"input,omitempty"`
	Expected string        `json:"expected"`
	Actual   string        `json:"actual,omitempty"`
	Error    string        `json:"error,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report aggregates per-case outcomes for a submission.
type Report struct {
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Errored  int          `json:"errored"`
	TimedOut int          `json:"timed_out"`
	Total    int          `json:"total"`
	Details  []CaseResult `json:"details"`
}

// Add records a case result and updates the counters.
func (r *Report) Add(result CaseResult) {
	switch result.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusTimedOut:
		r.TimedOut++
	default:
		result.Status = StatusErrored
		r.Errored++
	}
	r.Total++
	r.Details = append(r.Details, result)
}

// PassRate returns the fraction of passed cases, zero for an empty report.
func (r Report) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total)
}

// Score maps the pass rate onto the 0-10 scale, rounded to two decimals.
func (r Report) Score() float64 {
	return math.Round(r.PassRate()*10*100) / 100
}

// Runner executes code against test cases. Individual case failures are
// recorded in the report; an error is returned only when nothing could run.
type Runner interface {
	Run(ctx context.Context, submission Submission) (Report, error)
}

// Submission is the code under test plus the cases it must satisfy.
type Submission struct {
	Code       string
	Entrypoint string
	Cases      []TestCase
}
