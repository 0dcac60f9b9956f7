package gamification

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCheckInHabitDailyCap(t *testing.T) {
	h := newHarness(t)
	sid := h.store.addStudent(uuid.Nil, 0)
	ctx := context.Background()

	steps := []struct {
		key       string
		wantXP    int64
		wantToday int64
		wantCap   bool
	}{
		{"practice_forms", 20, 20, false},
		{"homework", 15, 35, false},
		{"help_at_home", 15, 50, false},
		{"read_20_minutes", 10, 60, true},
		{"make_bed", 0, 60, true},
	}
	for _, step := range steps {
		out, err := h.u.CheckInHabit(ctx, HabitCheckInInput{Actor: student(sid), HabitKey: step.key})
		if err != nil {
			t.Fatalf("%s: %v", step.key, err)
		}
		if out.XPAwarded != step.wantXP || out.XPToday != step.wantToday || out.CapReached != step.wantCap {
			t.Fatalf("%s: got %+v", step.key, out)
		}
	}
	if got := h.store.balance(sid); got != 60 {
		t.Fatalf("balance=%d want 60", got)
	}
	if n := len(h.store.ledgerFor(sid)); n != 4 {
		t.Fatalf("zero-XP check-in must not touch the ledger; got %d entries", n)
	}

	_, err := h.u.CheckInHabit(ctx, HabitCheckInInput{Actor: student(sid), HabitKey: "homework"})
	requireAPIErr(t, err, http.StatusTooManyRequests, "rate_limited")

	status, err := h.u.GetHabitStatus(ctx, student(sid))
	if err != nil {
		t.Fatalf("GetHabitStatus: %v", err)
	}
	if status.XPToday != 60 || !status.CapReached || status.DailyCap != 60 {
		t.Fatalf("unexpected status %+v", status)
	}
	done := 0
	for _, item := range status.Habits {
		if item.Completed {
			done++
		}
		if item.Key == "healthy_meal" && item.Completed {
			t.Fatalf("healthy_meal was never checked in")
		}
	}
	if done != 5 {
		t.Fatalf("expected 5 completed habits, got %d", done)
	}
}

func TestCheckInHabitUnknownKey(t *testing.T) {
	h := newHarness(t)
	_, err := h.u.CheckInHabit(context.Background(), HabitCheckInInput{Actor: student(uuid.New()), HabitKey: "eat_candy"})
	requireAPIErr(t, err, http.StatusBadRequest, "unknown_habit")
}

func TestSubmitFamilyChallenge(t *testing.T) {
	h := newHarness(t)
	sid := h.store.addStudent(uuid.Nil, 0)
	ctx := context.Background()

	out, err := h.u.SubmitFamilyChallenge(ctx, FamilyChallengeInput{Actor: student(sid), ChallengeKey: "parent_sparring", Outcome: "lost"})
	if err != nil {
		t.Fatalf("lost: %v", err)
	}
	if out.XPAwarded != 20 || out.Balance != 20 {
		t.Fatalf("loss should pay half: %+v", out)
	}

	_, err = h.u.SubmitFamilyChallenge(ctx, FamilyChallengeInput{Actor: student(sid), ChallengeKey: "parent_sparring", Outcome: "won"})
	requireAPIErr(t, err, http.StatusTooManyRequests, "rate_limited")

	out, err = h.u.SubmitFamilyChallenge(ctx, FamilyChallengeInput{Actor: student(sid), ChallengeKey: "Stretch_Together", Outcome: "WON"})
	if err != nil {
		t.Fatalf("won: %v", err)
	}
	if out.XPAwarded != 25 || out.Balance != 45 {
		t.Fatalf("unexpected win output %+v", out)
	}

	_, err = h.u.SubmitFamilyChallenge(ctx, FamilyChallengeInput{Actor: student(sid), ChallengeKey: "balance_battle", Outcome: "draw"})
	requireAPIErr(t, err, http.StatusBadRequest, "invalid_outcome")

	_, err = h.u.SubmitFamilyChallenge(ctx, FamilyChallengeInput{Actor: student(sid), ChallengeKey: "tug_of_war", Outcome: "won"})
	requireAPIErr(t, err, http.StatusBadRequest, "unknown_family_challenge")
}
