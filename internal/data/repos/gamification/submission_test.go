package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	dbpkg "github.com/yungbote/dojoquest-backend/internal/data/db"
	"github.com/yungbote/dojoquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

func TestChallengeSubmissionRepoVideoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	club := testutil.SeedClub(t, ctx, tx, true)
	student := testutil.SeedStudent(t, ctx, tx, &club.ID, 0)
	repo := NewChallengeSubmissionRepo(db, testutil.Logger(t))

	row := &types.ChallengeSubmission{
		StudentID:    student.ID,
		ChallengeKey: "kata_form",
		Mode:         gamedomain.ModeSoloVideo,
		Status:       gamedomain.StatusPending,
		ProofType:    gamedomain.ProofVideo,
		XPAmount:     60,
		Day:          "2026-03-01",
		VideoURL:     "https://storage.example/v.mp4",
	}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err := repo.ListPendingVideo(dbc, &club.ID, 10)
	if err != nil {
		t.Fatalf("ListPendingVideo: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != row.ID {
		t.Fatalf("ListPendingVideo: unexpected %+v", pending)
	}

	ok, err := repo.TransitionStatus(dbc, row.ID, []string{gamedomain.StatusPending}, map[string]any{"status": gamedomain.StatusVerified})
	if err != nil || !ok {
		t.Fatalf("TransitionStatus first: ok=%v err=%v", ok, err)
	}
	ok, err = repo.TransitionStatus(dbc, row.ID, []string{gamedomain.StatusPending}, map[string]any{"status": gamedomain.StatusRejected})
	if err != nil {
		t.Fatalf("TransitionStatus second: %v", err)
	}
	if ok {
		t.Fatalf("TransitionStatus second: expected lost CAS")
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v %v", got, err)
	}
	if got.Status != gamedomain.StatusVerified {
		t.Fatalf("status=%s want VERIFIED", got.Status)
	}
}

func TestChallengeSubmissionRepoQuizUniquePerDay(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	student := testutil.SeedStudent(t, ctx, tx, nil, 0)
	repo := NewChallengeSubmissionRepo(db, testutil.Logger(t))

	mk := func() *types.ChallengeSubmission {
		return &types.ChallengeSubmission{
			StudentID: student.ID, ChallengeKey: "daily", Mode: gamedomain.ModeQuiz,
			Status: gamedomain.StatusCompleted, ProofType: gamedomain.ProofQuizAnswer, Day: "2026-03-01",
		}
	}
	if err := repo.Create(dbc, mk()); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if err := repo.Create(dbc, mk()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create second: expected ErrDuplicate, got %v", err)
	}
	n, err := repo.CountByStudentModeDay(dbc, student.ID, gamedomain.ModeQuiz, "2026-03-01")
	if err != nil || n != 1 {
		t.Fatalf("CountByStudentModeDay: n=%d err=%v", n, err)
	}
}

func TestChallengeSubmissionRepoPvpScores(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	club := testutil.SeedClub(t, ctx, tx, false)
	a := testutil.SeedStudent(t, ctx, tx, &club.ID, 0)
	b := testutil.SeedStudent(t, ctx, tx, &club.ID, 0)
	repo := NewChallengeSubmissionRepo(db, testutil.Logger(t))

	row := &types.ChallengeSubmission{
		StudentID: a.ID, OpponentID: &b.ID, ChallengeKey: "pushup_challenge", Mode: gamedomain.ModePvp,
		Status: gamedomain.StatusActive, ProofType: gamedomain.ProofScoreExchange, Day: "2026-03-01",
	}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ok, err := repo.ResolvePvp(dbc, row.ID, &a.ID, time.Now(), 65); err != nil || ok {
		t.Fatalf("ResolvePvp before scores: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.SetPvpScore(dbc, row.ID, gamedomain.PvpRoleChallenger, 30); err != nil || !ok {
		t.Fatalf("SetPvpScore challenger: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.SetPvpScore(dbc, row.ID, gamedomain.PvpRoleChallenger, 99); err != nil || ok {
		t.Fatalf("SetPvpScore twice: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.SetPvpScore(dbc, row.ID, gamedomain.PvpRoleOpponent, 20); err != nil || !ok {
		t.Fatalf("SetPvpScore opponent: ok=%v err=%v", ok, err)
	}
	resolvedAt := time.Now().UTC()
	if ok, err := repo.ResolvePvp(dbc, row.ID, &a.ID, resolvedAt, 65); err != nil || !ok {
		t.Fatalf("ResolvePvp: ok=%v err=%v", ok, err)
	}
	paid, err := repo.CountPaidPvpForPair(dbc, b.ID, a.ID, resolvedAt.Add(-time.Hour), resolvedAt.Add(time.Hour))
	if err != nil || paid != 1 {
		t.Fatalf("CountPaidPvpForPair=%d err=%v want 1", paid, err)
	}

	list, err := repo.ListPvpForStudent(dbc, b.ID, 10)
	if err != nil {
		t.Fatalf("ListPvpForStudent: %v", err)
	}
	if len(list) != 1 || list[0].WinnerID == nil || *list[0].WinnerID != a.ID || *list[0].ChallengerScore != 30 {
		t.Fatalf("ListPvpForStudent: unexpected %+v", list)
	}
	if _, err := repo.GetByID(dbc, uuid.New()); err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
}

func TestChallengeSubmissionRepoTrustOncePerDayIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	student := testutil.SeedStudent(t, ctx, tx, nil, 0)
	repo := NewChallengeSubmissionRepo(db, testutil.Logger(t))
	trust := func() *types.ChallengeSubmission {
		return &types.ChallengeSubmission{
			StudentID:    student.ID,
			ChallengeKey: "pushup_challenge",
			Mode:         gamedomain.ModeSoloTrust,
			Status:       gamedomain.StatusCompleted,
			ProofType:    gamedomain.ProofSelfReport,
			XPAmount:     20,
			Day:          "2026-03-01",
		}
	}

	if err := dbpkg.EnsureTrustSubmissionIndex(tx, 1); err != nil {
		t.Fatalf("EnsureTrustSubmissionIndex(1): %v", err)
	}
	if err := repo.Create(dbc, trust()); err != nil {
		t.Fatalf("first trust submission: %v", err)
	}
	if err := repo.Create(dbc, trust()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second trust submission: expected ErrDuplicate, got %v", err)
	}

	if err := dbpkg.EnsureTrustSubmissionIndex(tx, 2); err != nil {
		t.Fatalf("EnsureTrustSubmissionIndex(2): %v", err)
	}
	if err := repo.Create(dbc, trust()); err != nil {
		t.Fatalf("trust submission with a higher limit: %v", err)
	}
}
