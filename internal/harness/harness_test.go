package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dockerexec "github.com/noah-isme/promptarena-go-api/pkg/docker"
)

type stubExecutor struct {
	respond func(input caseInput, req dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error)
	calls   int
	files   []string
}

func (s *stubExecutor) Run(ctx context.Context, req dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error) {
	s.calls++

	entries, err := os.ReadDir(req.Workspace)
	if err != nil {
		return dockerexec.ExecutionResult{}, err
	}
	s.files = s.files[:0]
	for _, entry := range entries {
		s.files = append(s.files, entry.Name())
	}

	raw, err := os.ReadFile(filepath.Join(req.Workspace, inputFile))
	if err != nil {
		return dockerexec.ExecutionResult{}, err
	}
	var input caseInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return dockerexec.ExecutionResult{}, err
	}
	return s.respond(input, req)
}

func resultLine(result string) string {
	payload, _ := json.Marshal(map[string]any{"result": result, "kind": "json"})
	return string(payload) + "\n"
}

func fibonacci(n int) string {
	seq := []int{}
	for i := 0; i < n; i++ {
		switch i {
		case 0:
			seq = append(seq, 0)
		case 1:
			seq = append(seq, 1)
		default:
			seq = append(seq, seq[i-1]+seq[i-2])
		}
	}
	encoded, _ := json.Marshal(seq)
	return strings.ReplaceAll(string(encoded), ",", ", ")
}

func TestDockerRunnerPassesFibonacciCase(t *testing.T) {
	exec := &stubExecutor{respond: func(input caseInput, req dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error) {
		require.True(t, req.NetworkDisabled)
		require.Equal(t, DefaultCaseTimeout, req.Timeout)
		require.Equal(t, []string{"python", wrapperFile}, req.Cmd)

		args, ok := input.Input.(map[string]any)
		require.True(t, ok)
		return dockerexec.ExecutionResult{Stdout: resultLine(fibonacci(int(args["n"].(float64))))}, nil
	}}

	runner := NewDockerRunner(exec, Config{}, zerolog.Nop(), nil)
	report, err := runner.Run(context.Background(), Submission{
		Code:       "def fibonacci(n):\n    return []\n",
		Entrypoint: "fibonacci",
		Cases:      []TestCase{{Input: map[string]any{"n": 5}, Expected: "[0,1,1,2,3]"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Passed)
	require.Equal(t, 0, report.Failed)
	require.Equal(t, 1, report.Total)
	require.Equal(t, 10.0, report.Score())
	require.ElementsMatch(t, []string{solutionFile, wrapperFile, inputFile}, exec.files)
}

func TestDockerRunnerClassifiesEachCaseIndependently(t *testing.T) {
	exec := &stubExecutor{respond: func(input caseInput, req dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error) {
		switch input.Input.(map[string]any)["n"].(float64) {
		case 1:
			return dockerexec.ExecutionResult{Stdout: resultLine("[0]")}, nil
		case 2:
			return dockerexec.ExecutionResult{Stdout: resultLine("[9, 9]")}, nil
		case 3:
			return dockerexec.ExecutionResult{Stdout: `{"error": "ZeroDivisionError: division by zero"}` + "\n"}, nil
		case 4:
			return dockerexec.ExecutionResult{TimedOut: true}, fmt.Errorf("%w after 5s", dockerexec.ErrTimeout)
		default:
			return dockerexec.ExecutionResult{}, errors.New("daemon unavailable")
		}
	}}

	var observed []Status
	runner := NewDockerRunner(exec, Config{}, zerolog.Nop(), func(status Status) {
		observed = append(observed, status)
	})

	cases := make([]TestCase, 0, 5)
	expected := []string{"[0]", "[0,1]", "[0,1,1]", "[0,1,1,2]", "[0,1,1,2,3]"}
	for i := 1; i <= 5; i++ {
		cases = append(cases, TestCase{Input: map[string]any{"n": i}, Expected: expected[i-1]})
	}

	report, err := runner.Run(context.Background(), Submission{Code: "x", Entrypoint: "fibonacci", Cases: cases})
	require.NoError(t, err)
	require.Equal(t, 5, exec.calls)
	require.Equal(t, 1, report.Passed)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 2, report.Errored)
	require.Equal(t, 1, report.TimedOut)
	require.Equal(t, 5, report.Total)
	require.Equal(t, 2.0, report.Score())
	require.Equal(t, []Status{StatusPassed, StatusFailed, StatusErrored, StatusTimedOut, StatusErrored}, observed)
	require.Contains(t, report.Details[2].Error, "ZeroDivisionError")
}

func TestDockerRunnerRejectsEmptyCaseList(t *testing.T) {
	runner := NewDockerRunner(&stubExecutor{}, Config{}, zerolog.Nop(), nil)
	_, err := runner.Run(context.Background(), Submission{Code: "x"})
	require.ErrorIs(t, err, ErrNoTestCases)
}

func TestDockerRunnerMarksUnparseableOutputErrored(t *testing.T) {
	exec := &stubExecutor{respond: func(caseInput, dockerexec.ExecutionRequest) (dockerexec.ExecutionResult, error) {
		return dockerexec.ExecutionResult{Stdout: "", Stderr: "SyntaxError: invalid syntax", ExitCode: 1}, nil
	}}

	runner := NewDockerRunner(exec, Config{}, zerolog.Nop(), nil)
	report, err := runner.Run(context.Background(), Submission{Code: "def (", Cases: []TestCase{{Input: "abc", Expected: "cba"}}})
	require.NoError(t, err)
	require.Equal(t, 1, report.Errored)
	require.Equal(t, "SyntaxError: invalid syntax", report.Details[0].Error)
	require.Equal(t, 0.0, report.Score())
}

func TestMatches(t *testing.T) {
	cases := []struct {
		actual   string
		expected string
		want     bool
	}{
		{"[0, 1, 1, 2, 3]", "[0,1,1,2,3]", true},
		{"true", "True", false},
		{`"racecar"`, "racecar", true},
		{`{"a": 1, "b": 2}`, `{"b":2,"a":1}`, true},
		{"hello world", "hello  world", true},
		{"[1,2]", "[2,1]", false},
		{"  42\n", "42", true},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Matches(tc.actual, tc.expected), "%q vs %q", tc.actual, tc.expected)
	}
}

func TestTestCaseUnmarshalKeepsNonStringExpected(t *testing.T) {
	var cases []TestCase
	err := json.Unmarshal([]byte(`[{"input":{"n":5},"expected":[0,1,1,2,3]},{"input":"level","expected":"True"}]`), &cases)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	require.Equal(t, "[0,1,1,2,3]", cases[0].Expected)
	require.Equal(t, "True", cases[1].Expected)
	require.Equal(t, "level", cases[1].Input)
}

func TestRenderWrapperQuotesEntrypoint(t *testing.T) {
	script, err := renderWrapper("is_palindrome")
	require.NoError(t, err)
	require.Contains(t, string(script), `ENTRYPOINT = "is_palindrome"`)
	require.Contains(t, string(script), `open("input.json"`)

	script, err = renderWrapper("")
	require.NoError(t, err)
	require.Contains(t, string(script), `ENTRYPOINT = "main"`)
}
