// Package risk classifies aggregate screening evidence into an advisory risk
// label plus a narrative summary. The external model call is decorative
// enrichment: every failure path lands on the deterministic fallback.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/complyline/screening/internal/model"
)

// Labels of the advisory risk vocabulary.
const (
	LabelLow      = "LOW"
	LabelMedium   = "MEDIUM"
	LabelHigh     = "HIGH"
	LabelCritical = "CRITICAL"
)

// maxPromptMatches bounds how many watchlist matches go into the prompt.
const maxPromptMatches = 5

// Scorer produces (label, summary) for a screening. A nil model client means
// the deterministic path is always used.
type Scorer struct {
	client *openai.Client
	mdl    string
	log    zerolog.Logger
}

// New creates a scorer. apiKey may be blank, in which case no model is
// configured and Score never performs network I/O.
func New(apiKey, mdl string, log zerolog.Logger) *Scorer {
	s := &Scorer{mdl: mdl, log: log}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// Score classifies the evidence. It never returns an error: any model or
// parse failure falls back to the deterministic result.
func (s *Scorer) Score(ctx context.Context, query string, class model.Classification, eu model.RegistryFindings, matches []model.MatchResult) (string, string) {
	if s.client == nil {
		return s.fallback(eu, matches)
	}

	label, summary, err := s.classify(ctx, query, class, eu, matches)
	if err != nil {
		s.log.Warn().Err(err).Msg("risk classification call failed, using deterministic fallback")
		return s.fallback(eu, matches)
	}
	return label, summary
}

// fallback is the always-available deterministic path.
func (s *Scorer) fallback(eu model.RegistryFindings, matches []model.MatchResult) (string, string) {
	if !eu.Found && len(matches) == 0 {
		return LabelLow, "No matches found in the EU or UN sanctions databases."
	}

	var findings []string
	if eu.Found {
		findings = append(findings, fmt.Sprintf("%d EU regime(s)", len(eu.Regimes)))
	}
	if len(matches) > 0 {
		findings = append(findings, fmt.Sprintf("%d UN match(es)", len(matches)))
	}
	return LabelMedium, fmt.Sprintf("Found %s. Manual review recommended.", strings.Join(findings, ", "))
}

func (s *Scorer) classify(ctx context.Context, query string, class model.Classification, eu model.RegistryFindings, matches []model.MatchResult) (string, string, error) {
	prompt := buildPrompt(query, class, eu, matches)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.mdl,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a compliance analyst specialized in sanctions screening. Answer concisely.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		return "", "", err
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("empty completion")
	}
	return parseResponse(resp.Choices[0].Message.Content)
}

// buildPrompt assembles a bounded prompt; at most maxPromptMatches watchlist
// matches are serialized into it.
func buildPrompt(query string, class model.Classification, eu model.RegistryFindings, matches []model.MatchResult) string {
	sample := matches
	if len(sample) > maxPromptMatches {
		sample = sample[:maxPromptMatches]
	}
	unBlock := "No matches found"
	if len(sample) > 0 {
		if b, err := json.MarshalIndent(sample, "", "  "); err == nil {
			unBlock = string(b)
		}
	}

	return fmt.Sprintf(`Analyze the following sanctions screening results:

Query: %s
Type: %s

EU Sanctions Map results:
- Autocomplete matches: %v
- Regime matches: %d regime(s)

UN Security Council results:
%s

Provide:
1. A risk score (LOW, MEDIUM, HIGH, CRITICAL)
2. A short summary (2-3 sentences) explaining the findings and recommended actions.

Format the answer as:
RISK: [score]
SUMMARY: [your summary]`, query, class, eu.Candidates, len(eu.Regimes), unBlock)
}

// parseResponse expects the two labeled lines; anything else is a parse
// failure handled by the caller's fallback.
func parseResponse(text string) (string, string, error) {
	var label, summary string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "RISK:"):
			label = strings.TrimSpace(strings.TrimPrefix(line, "RISK:"))
		case strings.HasPrefix(line, "SUMMARY:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		}
	}
	if label == "" || summary == "" {
		return "", "", fmt.Errorf("completion missing RISK/SUMMARY lines")
	}
	return label, summary, nil
}
