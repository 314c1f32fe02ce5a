// Package classifier binds semantic section labels to outline nodes using
// Gemini. It is an opportunistic primary path: every failure mode here is
// non-fatal and the locator falls back to its deterministic matcher.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"brainlift_tracker/internal/domain"
)

// Config holds classifier configuration.
type Config struct {
	APIKey string
	Model  string
}

// Gemini asks the model which candidate node a section label refers to.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGemini(ctx context.Context, cfg Config, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
		logger: logger.With("component", "classifier"),
	}, nil
}

// Classify returns the id of the candidate matching the label, or
// comma-joined ids for multi-match labels. An empty string means "no
// answer"; the caller decides what to do with it.
func (g *Gemini) Classify(ctx context.Context, label string, candidates []domain.Node) (string, error) {
	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- id: %s, name: %q\n", c.ID, c.Name)
	}

	prompt := fmt.Sprintf(`You match outline section names to semantic labels.

Label: %q (also known as %q)

Candidates:
%s
Reply with the id of the matching candidate only. If several candidates match,
reply with their ids joined by commas. If none match, reply with NONE.
No explanations, no formatting.`, label, domain.Section(strings.ToLower(label)).Label(), list.String())

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	answer := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if strings.EqualFold(answer, "NONE") {
		return "", nil
	}
	g.logger.Debug("classifier answer", "label", label, "answer", answer)
	return answer, nil
}
