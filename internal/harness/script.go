package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

const (
	solutionFile = "solution.py"
	wrapperFile  = "main.py"
	inputFile    = "input.json"
)

var wrapperTemplate = template.Must(template.New("wrapper").Funcs(template.FuncMap{
	"pyquote": strconv.Quote,
}).Parse(`import contextlib
import io
import json
import sys

ENTRYPOINT = {{ pyquote .Entrypoint }}


def emit(payload):
    sys.__stdout__.write(json.dumps(payload) + "\n")
    sys.__stdout__.flush()


def run():
    with open({{ pyquote .InputFile }}, "r", encoding="utf-8") as handle:
        spec = json.load(handle)

    captured = io.StringIO()
    try:
        with contextlib.redirect_stdout(captured):
            import solution

            func = getattr(solution, ENTRYPOINT, None) or getattr(solution, "main", None)
            if func is None:
                emit({"error": "function %s is not defined" % ENTRYPOINT})
                return
            if not spec.get("has_input", False):
                result = func()
            elif isinstance(spec.get("input"), dict):
                result = func(**spec["input"])
            else:
                result = func(spec.get("input"))
    except Exception as exc:
        emit({"error": "%s: %s" % (type(exc).__name__, exc), "stdout": captured.getvalue()})
        return

    if result is None:
        emit({"result": captured.getvalue().strip(), "kind": "stdout", "stdout": captured.getvalue()})
        return
    if isinstance(result, tuple):
        result = list(result)
    try:
        emit({"result": json.dumps(result), "kind": "json", "stdout": captured.getvalue()})
    except (TypeError, ValueError):
        emit({"result": str(result), "kind": "text", "stdout": captured.getvalue()})


run()
`))

type wrapperData struct {
	Entrypoint string
	InputFile  string
}

type caseInput struct {
	HasInput bool `json:"has_input"`
	Input    any  `json:"input"`
}

// wrapperOutput is the single JSON line printed by the wrapper script.
type wrapperOutput struct {
	Result *string `json:"result"`
	Kind   string  `json:"kind"`
	Error  string  `json:"error"`
	Stdout string  `json:"stdout"`
}

func renderWrapper(entrypoint string) ([]byte, error) {
	if strings.TrimSpace(entrypoint) == "" {
		entrypoint = "main"
	}
	var buf bytes.Buffer
	if err := wrapperTemplate.Execute(&buf, wrapperData{Entrypoint: entrypoint, InputFile: inputFile}); err != nil {
		return nil, fmt.Errorf("render wrapper: %w", err)
	}
	return buf.Bytes(), nil
}

func renderInput(tc TestCase) ([]byte, error) {
	payload, err := json.Marshal(caseInput{HasInput: tc.Input != nil, Input: tc.Input})
	if err != nil {
		return nil, fmt.Errorf("encode test input: %w", err)
	}
	return payload, nil
}

// parseWrapperOutput reads the last JSON line from stdout. Lines written by the
// submitted code at import time are captured by the wrapper, so the final line
// is the wrapper's own.
func parseWrapperOutput(stdout string) (wrapperOutput, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var out wrapperOutput
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			return wrapperOutput{}, fmt.Errorf("decode wrapper output: %w", err)
		}
		return out, nil
	}
	return wrapperOutput{}, fmt.Errorf("wrapper produced no output")
}
