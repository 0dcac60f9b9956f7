package gamification

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/dojoquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

func TestDailyChallengeRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDailyChallengeRepo(db, testutil.Logger(t))

	first, created, err := repo.CreateIfAbsent(dbc, &types.DailyChallenge{
		ChallengeDate: "2026-03-01", Cohort: "yellow", Title: "Stances", XPReward: 25,
		Question: "Which stance?", Options: []byte(`["a","b"]`), CorrectOption: 1,
	})
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent first: created=%v err=%v", created, err)
	}
	second, created, err := repo.CreateIfAbsent(dbc, &types.DailyChallenge{
		ChallengeDate: "2026-03-01", Cohort: "yellow", Title: "Other", XPReward: 25,
		Question: "?", Options: []byte(`["x","y"]`),
	})
	if err != nil {
		t.Fatalf("CreateIfAbsent second: %v", err)
	}
	if created || second.ID != first.ID || second.Title != "Stances" {
		t.Fatalf("CreateIfAbsent second: expected stored row, got created=%v %+v", created, second)
	}

	missing, err := repo.GetByKey(dbc, "2026-03-01", "black")
	if err != nil || missing != nil {
		t.Fatalf("GetByKey missing: %v %v", missing, err)
	}
}

func TestHabitAndFamilyLogRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	student := testutil.SeedStudent(t, ctx, tx, nil, 0)

	habits := NewHabitLogRepo(db, testutil.Logger(t))
	if err := habits.Create(dbc, &types.HabitLog{StudentID: student.ID, HabitKey: "make_bed", Day: "2026-03-01", XPAwarded: 10}); err != nil {
		t.Fatalf("habit Create: %v", err)
	}
	if err := habits.Create(dbc, &types.HabitLog{StudentID: student.ID, HabitKey: "homework", Day: "2026-03-01", XPAwarded: 15}); err != nil {
		t.Fatalf("habit Create second habit: %v", err)
	}
	if err := habits.Create(dbc, &types.HabitLog{StudentID: student.ID, HabitKey: "make_bed", Day: "2026-03-01"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("habit duplicate: expected ErrDuplicate, got %v", err)
	}
	sum, err := habits.SumXPByStudentDay(dbc, student.ID, "2026-03-01")
	if err != nil || sum != 25 {
		t.Fatalf("SumXPByStudentDay: sum=%d err=%v", sum, err)
	}
	if ok, err := habits.Exists(dbc, student.ID, "make_bed", "2026-03-02"); err != nil || ok {
		t.Fatalf("Exists other day: ok=%v err=%v", ok, err)
	}

	family := NewFamilyLogRepo(db, testutil.Logger(t))
	row := &types.FamilyLog{StudentID: student.ID, ChallengeKey: "parent_sparring", Day: "2026-03-01", Outcome: "won", XPAwarded: 40}
	if err := family.Create(dbc, row); err != nil {
		t.Fatalf("family Create: %v", err)
	}
	if err := family.Create(dbc, &types.FamilyLog{StudentID: student.ID, ChallengeKey: "parent_sparring", Day: "2026-03-01", Outcome: "lost"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("family duplicate: expected ErrDuplicate, got %v", err)
	}
	logs, err := family.ListByStudentDay(dbc, student.ID, "2026-03-01")
	if err != nil || len(logs) != 1 {
		t.Fatalf("ListByStudentDay: %d %v", len(logs), err)
	}
}
