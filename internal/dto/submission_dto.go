package dto

import (
	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

// SubmissionRequest is the payload for scoring a prompt.
type SubmissionRequest struct {
	ChallengeID               uint   `json:"challenge_id" validate:"required,gt=0"`
	UserPrompt                string `json:"user_prompt" validate:"max=8000"`
	GeneratedOutput           string `json:"generated_output" validate:"max=200000"`
	GeneratedImageDescription string `json:"generated_image_description,omitempty" validate:"max=20000"`
	GeneratedCode             string `json:"generated_code,omitempty" validate:"max=100000"`
}

// CodeExecutionResponse reports harness results for code challenges.
type CodeExecutionResponse struct {
	Passed   int                  `json:"passed"`
	Failed   int                  `json:"failed"`
	Errored  int                  `json:"errored"`
	TimedOut int                  `json:"timed_out"`
	Total    int                  `json:"total"`
	PassRate float64              `json:"pass_rate"`
	Details  []harness.CaseResult `json:"details"`
}

// EvaluationResponse is the scored result returned to clients.
type EvaluationResponse struct {
	EvaluationID      string                 `json:"evaluation_id"`
	ChallengeID       uint                   `json:"challenge_id"`
	ModuleType        string                 `json:"module_type"`
	RuleScore         int                    `json:"rule_score"`
	SimilarityScore   float64                `json:"similarity_score"`
	FinalScore        float64                `json:"final_score"`
	MaxScore          float64                `json:"max_score"`
	Tier              string                 `json:"tier"`
	SimilarityBackend string                 `json:"similarity_backend"`
	Feedback          string                 `json:"feedback"`
	Satisfied         []string               `json:"satisfied"`
	Improvements      []string               `json:"improvements"`
	AutoHelp          *evaluation.AutoHelp   `json:"auto_help"`
	CodeExecution     *CodeExecutionResponse `json:"code_execution"`
}

// NewEvaluationResponse maps an engine result onto the response DTO.
func NewEvaluationResponse(evaluationID string, challengeID uint, module evaluation.ModuleType, result evaluation.Result) EvaluationResponse {
	satisfied := make([]string, 0, len(result.Satisfied))
	for _, kind := range result.Satisfied {
		satisfied = append(satisfied, string(kind))
	}
	improvements := result.Suggestions
	if improvements == nil {
		improvements = []string{}
	}

	response := EvaluationResponse{
		EvaluationID:      evaluationID,
		ChallengeID:       challengeID,
		ModuleType:        string(module),
		RuleScore:         result.RuleScore,
		SimilarityScore:   result.SimilarityScore,
		FinalScore:        result.FinalScore,
		MaxScore:          evaluation.MaxScore,
		Tier:              string(result.Tier),
		SimilarityBackend: string(result.SimilarityBackend),
		Feedback:          result.Feedback,
		Satisfied:         satisfied,
		Improvements:      improvements,
		AutoHelp:          result.AutoHelp,
	}

	if report := result.CodeReport; report != nil {
		response.CodeExecution = &CodeExecutionResponse{
			Passed:   report.Passed,
			Failed:   report.Failed,
			Errored:  report.Errored,
			TimedOut: report.TimedOut,
			Total:    report.Total,
			PassRate: report.PassRate(),
			Details:  report.Details,
		}
	}

	return response
}
