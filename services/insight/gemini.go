// Package insightsvc comments attendance series with a Gemini model.
package insightsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/stats"
)

const promptTmpl = `You are the assistant of a church attendance app.
Here is the attendance data, per date, prepared for a %s:
%s

Based on this data, write a short and encouraging analysis in %s (150 characters at most).
Point out what grew and what needs attention, and give one practical piece of advice to raise attendance.
Tone: professional yet pastoral and warm.`

// generator sends a prompt to a model and returns its text answer.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

type GeminiInsighter struct {
	gen      generator
	language string
	timeout  time.Duration
	logger   core.Logger
}

var _ stats.Insighter = (*GeminiInsighter)(nil)

// NewGeminiInsighter connects to the Gemini API. Without API key every insight is stats.InsightNotConfigured.
func NewGeminiInsighter(ctx context.Context, conf core.InsightConfig, logger core.Logger) (*GeminiInsighter, error) {
	ins := &GeminiInsighter{language: conf.Language, timeout: conf.Timeout, logger: logger}
	if conf.APIKey == "" {
		return ins, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	ins.gen = geminiGenerator{client: client, model: conf.Model}
	return ins, nil
}

// Insight never fails: missing configuration, errors and empty answers map to the stats.Insight* texts.
func (ins *GeminiInsighter) Insight(ctx context.Context, points []stats.Point, role member.Role) string {
	if ins.gen == nil {
		return stats.InsightNotConfigured
	}
	if len(points) == 0 {
		return stats.InsightNoData
	}

	prompt, err := buildPrompt(points, role, ins.language)
	if err != nil {
		ins.logger.Error("building insight prompt", err)
		return stats.InsightEmpty
	}

	if ins.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ins.timeout)
		defer cancel()
	}
	text, err := ins.gen.generate(ctx, prompt)
	if err != nil {
		ins.logger.Error("generating insight", err)
		return stats.InsightUnavailable
	}
	if text = strings.TrimSpace(text); text == "" {
		return stats.InsightEmpty
	}
	return text
}

func buildPrompt(points []stats.Point, role member.Role, language string) (string, error) {
	data, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(promptTmpl, strings.ToLower(role.Label()), data, language), nil
}
