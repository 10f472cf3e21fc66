package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/llm"
	"arxiv-similarity-search/internal/models"
)

const defaultPrompt = `You are a research assistant producing a deep-dive summary of a paper.

Paper title: {{.Title}}
Authors: {{.Authors}}
Year: {{.Year}}
Abstract:
{{.Abstract}}

Respond with ONLY a JSON object with exactly these keys:
{
  "research_objective": "one or two sentences",
  "methodology_summary": "short paragraph",
  "key_findings": ["finding 1", "finding 2", "finding 3"],
  "innovation_and_contribution": "short paragraph",
  "technical_details": "short paragraph",
  "limitations_and_future_work": "short paragraph"
}`

// Generator produces paper summaries through the LLM client. A nil return
// without an error is the defined summary-failed signal: the model answered
// but not with something we can use.
type Generator struct {
	llmClient   llm.LLMClient
	tmpl        *template.Template
	maxTokens   int
	temperature float64
	logger      *zerolog.Logger
}

func NewGenerator(llmClient llm.LLMClient, logger *zerolog.Logger) (*Generator, error) {
	tmpl, err := template.New("summary").Parse(defaultPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary prompt template: %w", err)
	}

	return &Generator{
		llmClient:   llmClient,
		tmpl:        tmpl,
		maxTokens:   1024,
		temperature: 0.0,
		logger:      logger,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, paper models.PaperRecord) (*models.Summary, error) {
	prompt, err := g.buildPrompt(paper)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary prompt: %w", err)
	}

	resp, err := g.llmClient.InvokeModelWithRetry(ctx, llm.LLMRequest{
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	content := stripMarkdownCodeBlock(resp.Content)

	var summary models.Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		g.logger.Error().
			Err(err).
			Str("title", paper.Title).
			Str("content", resp.Content).
			Msg("Failed to deserialize summary response")
		return nil, nil
	}

	if summary.KeyFindings == nil {
		summary.KeyFindings = []string{}
	}

	return &summary, nil
}

func (g *Generator) buildPrompt(paper models.PaperRecord) (string, error) {
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, map[string]any{
		"Title":    paper.Title,
		"Authors":  strings.Join(paper.Authors, ", "),
		"Year":     paper.Year,
		"Abstract": paper.Abstract,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}
