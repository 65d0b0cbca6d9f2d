package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0
	ExitBelowScore = 1
	ExitError      = 2
)

// BelowThresholdError reports that scoring worked but the prompt missed --min-score.
type BelowThresholdError struct {
	Score     float64
	Threshold float64
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("final score %.1f is below the required %.1f", e.Score, e.Threshold)
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var below *BelowThresholdError
		if errors.As(err, &below) {
			os.Exit(ExitBelowScore)
		}
		os.Exit(ExitError)
	}
}
