package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type fakeAI struct {
	out   map[string]any
	err   error
	calls int
}

func (f *fakeAI) GenerateJSON(_ context.Context, _, _, _ string, _ map[string]any) (map[string]any, error) {
	f.calls++
	return f.out, f.err
}

func TestChallengeGeneratorValidOutput(t *testing.T) {
	ai := &fakeAI{out: map[string]any{
		"title":          " Front Stance ",
		"description":    "Stances",
		"question":       "Which foot leads?",
		"options":        []any{"front", "back", "neither"},
		"correct_option": 0,
		"explanation":    "The front foot leads.",
	}}
	g := NewChallengeGenerator(logger.Nop(), ai)
	out, err := g.Generate(context.Background(), ChallengeRequest{Date: "2026-03-01", Cohort: "white"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Title != "Front Stance" || len(out.Options) != 3 || out.CorrectOption != 0 {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestChallengeGeneratorRejectsInvalidOutput(t *testing.T) {
	cases := map[string]map[string]any{
		"one option":     {"title": "t", "question": "q", "options": []any{"a"}, "correct_option": 0},
		"index too high": {"title": "t", "question": "q", "options": []any{"a", "b"}, "correct_option": 2},
		"empty option":   {"title": "t", "question": "q", "options": []any{"a", " "}, "correct_option": 0},
		"no question":    {"title": "t", "options": []any{"a", "b"}, "correct_option": 0},
		"wrong type":     {"title": "t", "question": "q", "options": "a,b", "correct_option": 0},
	}
	for name, raw := range cases {
		g := NewChallengeGenerator(logger.Nop(), &fakeAI{out: raw})
		if _, err := g.Generate(context.Background(), ChallengeRequest{}); !errors.Is(err, ErrGeneratorUnavailable) {
			t.Fatalf("%s: expected ErrGeneratorUnavailable, got %v", name, err)
		}
	}
}

func TestChallengeGeneratorWithoutClient(t *testing.T) {
	g := NewChallengeGenerator(logger.Nop(), nil)
	if _, err := g.Generate(context.Background(), ChallengeRequest{}); !errors.Is(err, ErrGeneratorUnavailable) {
		t.Fatalf("expected ErrGeneratorUnavailable, got %v", err)
	}
	ai := &fakeAI{err: errors.New("503")}
	g = NewChallengeGenerator(logger.Nop(), ai)
	if _, err := g.Generate(context.Background(), ChallengeRequest{}); !errors.Is(err, ErrGeneratorUnavailable) || ai.calls != 1 {
		t.Fatalf("expected wrapped upstream error, got %v (calls=%d)", err, ai.calls)
	}
}
