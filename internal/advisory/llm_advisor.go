package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/cranium/internal/llm"
	"github.com/jonathan/cranium/internal/prompts"
	"github.com/jonathan/cranium/internal/types"
)

// LLMAdvisor asks a generative model for advice using the embedded advisory prompts.
type LLMAdvisor struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMAdvisor creates an advisor over client using the standard tier.
func NewLLMAdvisor(client llm.Client) *LLMAdvisor {
	return &LLMAdvisor{client: client, tier: llm.TierStandard}
}

// Advise renders the evaluation prompt for req and returns the model's JSON reply.
func (a *LLMAdvisor) Advise(ctx context.Context, req types.AdviceRequest) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, prompt)
}

// AdviseAgain repeats the evaluation prompt with a note on what was wrong
// with the previous reply.
func (a *LLMAdvisor) AdviseAgain(ctx context.Context, req types.AdviceRequest, problem string) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}
	retry, err := prompts.Render(prompts.AdvisoryFile, prompts.KeyRetryInvalid, map[string]string{
		"Problem": strings.TrimSpace(problem),
	})
	if err != nil {
		return "", err
	}
	return a.generate(ctx, prompt+"\n\n"+retry)
}

func (a *LLMAdvisor) generate(ctx context.Context, prompt string) (string, error) {
	system, err := prompts.Get(prompts.AdvisoryFile, prompts.KeySystem)
	if err != nil {
		return "", err
	}
	return a.client.GenerateJSON(ctx, system, prompt, a.tier)
}

// BuildPrompt renders the evaluation prompt for one request.
func BuildPrompt(req types.AdviceRequest) (string, error) {
	chosen, err := json.MarshalIndent(req.ChosenItems, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode chosen items: %w", err)
	}
	history, err := json.MarshalIndent(req.LastActions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	available, err := json.MarshalIndent(req.AvailableItemContext, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode available items: %w", err)
	}

	role := req.TargetRole
	if role == "" {
		role = "(not specified)"
	}
	return prompts.Render(prompts.AdvisoryFile, prompts.KeyEvaluate, map[string]string{
		"TargetRole": role,
		"Focus":      req.Focus.CardContent,
		"Chosen":     string(chosen),
		"History":    string(history),
		"Available":  string(available),
	})
}
