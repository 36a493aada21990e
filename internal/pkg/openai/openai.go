package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const defaultModel = "gpt-4o-mini"

var (
	// ErrMissingAPIKey is returned when OPENAI_API_KEY was not configured.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Grader asks a model to apply the scoring rubric contained in a prompt.
type Grader struct {
	client *openai.Client
	model  shared.ResponsesModel
}

// NewGraderFromEnv builds a Grader using the OPENAI_API_KEY env var.
func NewGraderFromEnv() (*Grader, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return NewGrader(apiKey, os.Getenv("OPENAI_MODEL")), nil
}

// NewGrader builds a Grader. Requests go through http.DefaultClient unless
// opts override it.
func NewGrader(apiKey, model string, opts ...option.RequestOption) *Grader {
	if model == "" {
		model = defaultModel
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(http.DefaultClient),
	}, opts...)

	client := openai.NewClient(opts...)
	return &Grader{client: &client, model: shared.ResponsesModel(model)}
}

func (g *Grader) Model() string {
	return string(g.model)
}

// Grade sends the system and user prompts and decodes the model's JSON answer.
func (g *Grader) Grade(ctx context.Context, systemPrompt, prompt string) (*Grading, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("Grader is not initialized")
	}

	resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:       g.model,
		Temperature: openai.Float(0),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(systemPrompt, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("call OpenAI: %w", err)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return nil, ErrEmptyResponse
	}

	assessment, err := ParseAssessment(output)
	if err != nil {
		return nil, err
	}

	return &Grading{
		Assessment: *assessment,
		RawOutput:  output,
		Model:      string(resp.Model),
		UsedTokens: resp.Usage.TotalTokens,
	}, nil
}

// ParseAssessment decodes model output, repairing code fences, trailing
// commas and similar damage first.
func ParseAssessment(output string) (*Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(output), &a); err != nil {
		repaired, err := jsonrepair.RepairJSON(stripFences(output))
		if err != nil {
			return nil, fmt.Errorf("repair JSON: %w", err)
		}

		a = Assessment{}
		if err := json.Unmarshal([]byte(repaired), &a); err != nil {
			return nil, fmt.Errorf("unmarshal JSON: %w", err)
		}
	}

	if a.Grade == "" {
		return nil, fmt.Errorf("unmarshal JSON: no grade in %q", output)
	}

	return &a, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
