package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/config"
	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
	"github.com/noah-isme/promptarena-go-api/pkg/ai"
)

type scoreOptions struct {
	challengeID    uint
	prompt         string
	promptFile     string
	output         string
	outputFile     string
	description    string
	codeFile       string
	docker         bool
	expected       string
	module         string
	format         string
	minScore       float64
	apiKey         string
	embeddingModel string
}

func newScoreCommand(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a prompt and its generated output",
		Long: `Score runs the evaluation engine on a single submission and prints the
result. The expected output comes from the catalog challenge selected with
--challenge, or from --expected.

Similarity is lexical unless an OpenAI API key is available, in which case
embeddings are used. With --docker, code challenges run --code-file against
the challenge's test cases in a sandbox container. Evaluation settings are
read from the PROMPTARENA_* environment like the API server.`,
		Example: `  promptctl score --challenge 4 --prompt "You are a copywriter..." --output-file email.txt
  promptctl score --expected "a red fox in snow" --module image --prompt "..." --output "a fox"
  promptctl score --challenge 12 --prompt-file prompt.txt --code-file palindrome.py --docker`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, root, opts)
		},
	}

	cmd.Flags().UintVarP(&opts.challengeID, "challenge", "c", 0, "Catalog challenge id")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Prompt text")
	cmd.Flags().StringVar(&opts.promptFile, "prompt-file", "", "Read the prompt from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Generated output or image description")
	cmd.Flags().StringVar(&opts.outputFile, "output-file", "", "Read the generated output from a file (- for stdin)")
	cmd.Flags().StringVar(&opts.description, "image-description", "", "Description of a generated image, compared instead of --output")
	cmd.Flags().StringVar(&opts.codeFile, "code-file", "", "Generated code for code challenges (- for stdin)")
	cmd.Flags().BoolVar(&opts.docker, "docker", false, "Run --code-file against the challenge's test cases in Docker")
	cmd.Flags().StringVar(&opts.expected, "expected", "", "Expected output, overrides the challenge's")
	cmd.Flags().StringVar(&opts.module, "module", "", "Module type (image, script or code), overrides the challenge's")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Result format: json or yaml")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "Exit with status 1 when the final score is below this value")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "OpenAI API key for embeddings (or set PROMPTARENA_OPENAI_API_KEY)")
	cmd.Flags().StringVar(&opts.embeddingModel, "embedding-model", "", "Embedding model name (or set PROMPTARENA_EMBEDDING_MODEL)")

	return cmd
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	prompt, err := textFlag(cmd.InOrStdin(), opts.prompt, opts.promptFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("a prompt is required (--prompt or --prompt-file)")
	}
	output, err := textFlag(cmd.InOrStdin(), opts.output, opts.outputFile)
	if err != nil {
		return err
	}
	code, err := textFlag(cmd.InOrStdin(), "", opts.codeFile)
	if err != nil {
		return err
	}

	challenge, err := resolveChallenge(root, opts)
	if err != nil {
		return err
	}

	cfg, err := root.settings()
	if err != nil {
		return err
	}

	runner, closeRunner := codeRunner(cmd, root, opts, cfg)
	defer closeRunner()

	engine := evaluation.NewEngine(cfg.Evaluation(), embeddingBackend(opts, cfg), runner, root.logger, nil)
	result := engine.Evaluate(cmd.Context(), evaluation.Request{
		Prompt:          prompt,
		GeneratedOutput: evaluation.ComparisonText(challenge.ModuleType, output, opts.description, prompt),
		GeneratedCode:   code,
		Challenge:       challenge,
	})

	response := dto.NewEvaluationResponse(uuid.NewString(), challenge.ID, challenge.ModuleType, result)
	if err := writeResult(cmd.OutOrStdout(), opts.format, response); err != nil {
		return err
	}

	if opts.minScore > 0 && response.FinalScore < opts.minScore {
		return &BelowThresholdError{Score: response.FinalScore, Threshold: opts.minScore}
	}
	return nil
}

func resolveChallenge(root *rootOptions, opts *scoreOptions) (evaluation.Challenge, error) {
	var challenge evaluation.Challenge
	switch {
	case opts.challengeID > 0:
		entries, err := root.loadCatalog()
		if err != nil {
			return evaluation.Challenge{}, err
		}
		entry, ok := catalog.Find(entries, opts.challengeID)
		if !ok {
			return evaluation.Challenge{}, fmt.Errorf("challenge %d not found in catalog", opts.challengeID)
		}
		challenge = entry.Evaluation()
	case opts.expected == "":
		return evaluation.Challenge{}, fmt.Errorf("either --challenge or --expected is required")
	default:
		challenge.ModuleType = evaluation.ModuleScript
	}

	if opts.expected != "" {
		challenge.ExpectedOutput = opts.expected
	}
	if opts.module != "" {
		module := evaluation.ModuleType(strings.ToLower(opts.module))
		if !module.Valid() {
			return evaluation.Challenge{}, fmt.Errorf("unknown module type %q", opts.module)
		}
		challenge.ModuleType = module
	}
	return challenge, nil
}

func embeddingBackend(opts *scoreOptions, cfg config.Config) *evaluation.LazyBackend {
	key := opts.apiKey
	if key == "" {
		key = cfg.OpenAIAPIKey
	}
	if key == "" {
		return nil
	}
	model := opts.embeddingModel
	if model == "" {
		model = cfg.EmbeddingModel
	}

	return evaluation.NewLazyBackend(func() (evaluation.Embedder, error) {
		return ai.NewOpenAIEmbedder(ai.OpenAIConfig{APIKey: key, BaseURL: cfg.OpenAIBaseURL, EmbeddingModel: model})
	})
}

// codeRunner returns nil unless --docker was given. A daemon that cannot be
// reached only produces a warning; the code is then scored on output text.
func codeRunner(cmd *cobra.Command, root *rootOptions, opts *scoreOptions, cfg config.Config) (harness.Runner, func()) {
	if !opts.docker {
		return nil, func() {}
	}
	runner, closer, err := connectRunner(cmd.Context(), cfg, root.logger)
	if err != nil {
		root.logger.Warn().Err(err).Msg("docker unavailable, code challenges scored on output text")
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: docker unavailable (%v), scoring output text\n", err)
		return nil, func() {}
	}
	return runner, closer
}

// textFlag returns inline when set, otherwise the contents of path.
func textFlag(stdin io.Reader, inline, path string) (string, error) {
	switch path {
	case "":
		return inline, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}
}

func writeResult(w io.Writer, format string, value interface{}) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}

	// Round-trip through JSON so YAML keys follow the json tags.
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}
