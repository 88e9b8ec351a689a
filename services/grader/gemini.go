package gradersvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/trezcool/stadi/core"
)

type geminiGrader struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ core.Grader = (*geminiGrader)(nil)

// NewGeminiGrader returns a Grader backed by Google's Gemini API.
func NewGeminiGrader(ctx context.Context, conf *core.Config) (*geminiGrader, error) {
	if conf.Grading.ApiKey == "" {
		return nil, errors.New("grading API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.Grading.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}

	return &geminiGrader{
		client:  client,
		model:   conf.Grading.Model,
		timeout: conf.Grading.Timeout,
	}, nil
}

// Grade sends a single grading prompt to the model and extracts the grade
// object from its free-text reply. One shot; a malformed reply is not retried.
func (g *geminiGrader) Grade(ctx context.Context, in core.GradeInput) (core.GradeResult, error) {
	prompt, err := buildPrompt(in)
	if err != nil {
		return core.GradeResult{}, errors.Wrap(err, "building grading prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return core.GradeResult{}, errors.Wrap(err, "calling generative model")
	}

	res, err := extractGrade(resp.Text())
	if err != nil {
		return core.GradeResult{}, err
	}
	res.Model = g.model
	return res, nil
}
