// Package gemini implements the workflow decision advisory on top of the
// Gemini API. It is strictly a strategy behind the advisor.Advisor interface;
// the pipeline keeps the rule-based policy as its deterministic fallback.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/advisor"
	"github.com/spigell/talent-sourcer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Advisor asks Gemini for a gate decision. Unparseable or unknown responses
// surface as errors so the caller can fall back to the rule-based policy.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAdvisor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) Decide(ctx context.Context, situation *advisor.Situation) (*advisor.Decision, error) {
	if situation == nil {
		return nil, fmt.Errorf("situation is required")
	}

	payload := map[string]any{
		"gate":             string(situation.Gate),
		"found":            situation.Found,
		"suitable":         situation.Suitable,
		"min_candidates":   situation.MinCandidates,
		"min_suitable":     situation.MinSuitable,
		"retry_count":      situation.RetryCount,
		"max_retries":      situation.MaxRetries,
		"adjustment_level": situation.AdjustmentLevel,
	}

	situationJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal situation payload: %w", err)
	}

	prompt := buildPrompt(string(situationJSON))

	a.logger.Debug("gemini advisory request",
		zap.String("gate", string(situation.Gate)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini advisory response",
		zap.String("gate", string(situation.Gate)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	decision, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	return decision, nil
}

func buildPrompt(situationJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Situation:\n{{SITUATION_JSON}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{SITUATION_JSON}}", situationJSON)
}

func parseResponse(raw string) (*advisor.Decision, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	action := advisor.Action(strings.ToLower(coerceString(data["action"])))
	if !action.Valid() {
		return nil, fmt.Errorf("gemini returned unknown action: %q", action)
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) || confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &advisor.Decision{
		Action:     action,
		Reasoning:  coerceString(data["reasoning"]),
		Confidence: confidence,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
