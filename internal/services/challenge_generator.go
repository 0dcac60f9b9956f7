package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/platform/openai"
)

var ErrGeneratorUnavailable = errors.New("challenge generator unavailable")

type ChallengeRequest struct {
	Date     string
	Cohort   string
	ArtStyle string
}

// GeneratedChallenge is validated content; XP reward and identity are assigned
// by the caller.
type GeneratedChallenge struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

type ChallengeGenerator interface {
	Generate(ctx context.Context, req ChallengeRequest) (*GeneratedChallenge, error)
}

type challengeGenerator struct {
	log *logger.Logger
	ai  openai.Client
}

// NewChallengeGenerator accepts a nil client; Generate then always fails and
// callers serve their fallback.
func NewChallengeGenerator(log *logger.Logger, ai openai.Client) ChallengeGenerator {
	return &challengeGenerator{log: log.With("service", "ChallengeGenerator"), ai: ai}
}

const challengeSystemPrompt = `You write one short daily quiz for children training in a martial-arts school.
Topics: dojo etiquette, stances, blocks, kicks, safety, respect, focus and the history of the art.
Match the difficulty to the belt level. Exactly one option is correct. Keep language simple and positive.`

func challengeSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "description", "question", "options", "correct_option", "explanation"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"question":    map[string]any{"type": "string"},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 2,
				"maxItems": 6,
			},
			"correct_option": map[string]any{"type": "integer"},
			"explanation":    map[string]any{"type": "string"},
		},
	}
}

func (g *challengeGenerator) Generate(ctx context.Context, req ChallengeRequest) (*GeneratedChallenge, error) {
	if g.ai == nil {
		return nil, ErrGeneratorUnavailable
	}
	user := fmt.Sprintf("Date: %s\nBelt level: %s\nIllustration style: %s\nWrite today's challenge.",
		req.Date, req.Cohort, req.ArtStyle)
	raw, err := g.ai.GenerateJSON(ctx, challengeSystemPrompt, user, "daily_challenge", challengeSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	out, err := decodeGeneratedChallenge(raw)
	if err != nil {
		g.log.Warn("Discarding invalid generated challenge", "cohort", req.Cohort, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	return out, nil
}

func decodeGeneratedChallenge(raw map[string]any) (*GeneratedChallenge, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out GeneratedChallenge
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GeneratedChallenge) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	c.Question = strings.TrimSpace(c.Question)
	if c.Title == "" || c.Question == "" {
		return fmt.Errorf("title and question are required")
	}
	if len(c.Options) < 2 || len(c.Options) > 6 {
		return fmt.Errorf("need 2-6 options, got %d", len(c.Options))
	}
	for i, o := range c.Options {
		c.Options[i] = strings.TrimSpace(o)
		if c.Options[i] == "" {
			return fmt.Errorf("option %d is empty", i)
		}
	}
	if c.CorrectOption < 0 || c.CorrectOption >= len(c.Options) {
		return fmt.Errorf("correct_option %d out of range", c.CorrectOption)
	}
	return nil
}
