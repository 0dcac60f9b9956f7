package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

func TestXPLedgerRepoApply(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	student := testutil.SeedStudent(t, ctx, tx, nil, 0)
	repo := NewXPLedgerRepo(db, testutil.Logger(t))

	bal, err := repo.Apply(dbc, &types.XPTransaction{
		StudentID: student.ID, Amount: 40, Direction: gamedomain.DirectionEarn, Source: gamedomain.SourceHabit,
	})
	if err != nil {
		t.Fatalf("Apply earn: %v", err)
	}
	if bal != 40 {
		t.Fatalf("Apply earn: balance=%d want 40", bal)
	}

	bal, err = repo.Apply(dbc, &types.XPTransaction{
		StudentID: student.ID, Amount: -15, Direction: gamedomain.DirectionSpend, Source: gamedomain.SourceRedemption,
	})
	if err != nil {
		t.Fatalf("Apply spend: %v", err)
	}
	if bal != 25 {
		t.Fatalf("Apply spend: balance=%d want 25", bal)
	}

	_, err = repo.Apply(dbc, &types.XPTransaction{
		StudentID: student.ID, Amount: -26, Direction: gamedomain.DirectionSpend, Source: gamedomain.SourceRedemption,
	})
	if !errors.Is(err, ErrInsufficientXP) {
		t.Fatalf("overspend: expected ErrInsufficientXP, got %v", err)
	}

	_, err = repo.Apply(dbc, &types.XPTransaction{
		StudentID: uuid.New(), Amount: 5, Direction: gamedomain.DirectionEarn, Source: gamedomain.SourceHabit,
	})
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("missing student: expected ErrStudentNotFound, got %v", err)
	}

	entries, err := repo.ListByStudent(dbc, student.ID, 10)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByStudent: expected 2 entries, got %d", len(entries))
	}
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	if sum != 25 {
		t.Fatalf("ledger sum=%d want 25", sum)
	}
}

func TestXPLedgerRepoApplyRejectsMismatchedDirection(t *testing.T) {
	repo := NewXPLedgerRepo(nil, logger.Nop())
	dbc := dbctx.Context{Ctx: context.Background()}
	studentID := uuid.New()

	cases := []*types.XPTransaction{
		{StudentID: studentID, Amount: -10, Direction: gamedomain.DirectionEarn, Source: gamedomain.SourceHabit},
		{StudentID: studentID, Amount: 10, Direction: gamedomain.DirectionSpend, Source: gamedomain.SourceRedemption},
		{StudentID: studentID, Amount: 10, Direction: "REFUND", Source: gamedomain.SourceHabit},
	}
	for _, entry := range cases {
		if _, err := repo.Apply(dbc, entry); !errors.Is(err, aggregates.ErrInvariant) {
			t.Fatalf("%s %d: expected invariant error, got %v", entry.Direction, entry.Amount, err)
		}
	}
	if _, err := repo.Apply(dbc, &types.XPTransaction{StudentID: studentID, Direction: gamedomain.DirectionEarn}); !errors.Is(err, aggregates.ErrValidation) {
		t.Fatalf("zero amount: expected validation error, got %v", err)
	}
}

func TestXPLedgerRepoSumEarnedSinceByClub(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	club := testutil.SeedClub(t, ctx, tx, false)
	member := testutil.SeedStudent(t, ctx, tx, &club.ID, 0)
	outsider := testutil.SeedStudent(t, ctx, tx, nil, 0)
	repo := NewXPLedgerRepo(db, testutil.Logger(t))

	for _, e := range []*types.XPTransaction{
		{StudentID: member.ID, Amount: 30, Direction: gamedomain.DirectionEarn, Source: gamedomain.SourceHabit},
		{StudentID: member.ID, Amount: -10, Direction: gamedomain.DirectionSpend, Source: gamedomain.SourceRedemption},
		{StudentID: outsider.ID, Amount: 99, Direction: gamedomain.DirectionEarn, Source: gamedomain.SourceHabit},
	} {
		if _, err := repo.Apply(dbc, e); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	earned, err := repo.SumEarnedSinceByClub(dbc, club.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("SumEarnedSinceByClub: %v", err)
	}
	if len(earned) != 1 || earned[member.ID] != 30 {
		t.Fatalf("unexpected sums %v", earned)
	}
}
