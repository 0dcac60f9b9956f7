package gamification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const submissionTable = "challenge_submission"

type ChallengeSubmissionRepo interface {
	Create(dbc dbctx.Context, row *types.ChallengeSubmission) error
	// GetByID returns (nil, nil) when the submission does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChallengeSubmission, error)
	CountByStudentKeyModeDay(dbc dbctx.Context, studentID uuid.UUID, challengeKey, mode, day string) (int64, error)
	CountByStudentModeDay(dbc dbctx.Context, studentID uuid.UUID, mode, day string) (int64, error)
	// TransitionStatus moves a row from one of fromStatuses to updates["status"].
	// It reports false when another writer moved the row first.
	TransitionStatus(dbc dbctx.Context, id uuid.UUID, fromStatuses []string, updates map[string]any) (bool, error)
	// SetPvpScore records one side's score on an ACTIVE match whose column is still empty.
	SetPvpScore(dbc dbctx.Context, id uuid.UUID, role types.PvpRole, score int) (bool, error)
	// ResolvePvp completes an ACTIVE match whose both scores are recorded.
	// xpPaid is the total paid to both sides; 0 marks an unpaid match.
	ResolvePvp(dbc dbctx.Context, id uuid.UUID, winnerID *uuid.UUID, resolvedAt time.Time, xpPaid int64) (bool, error)
	// CountPaidPvpForPair counts completed paid matches between a and b, in
	// either direction, resolved in [from, to).
	CountPaidPvpForPair(dbc dbctx.Context, a, b uuid.UUID, from, to time.Time) (int64, error)
	// ListPendingVideo returns PENDING video rows oldest first, optionally
	// restricted to students of one club.
	ListPendingVideo(dbc dbctx.Context, clubID *uuid.UUID, limit int) ([]*types.ChallengeSubmission, error)
	ListPvpForStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*types.ChallengeSubmission, error)
}

type challengeSubmissionRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewChallengeSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeSubmissionRepo {
	return &challengeSubmissionRepo{
		db:    db,
		log:   baseLog.With("repo", "ChallengeSubmissionRepo"),
		guard: aggregates.NewCASGuard(db),
	}
}

func (r *challengeSubmissionRepo) Create(dbc dbctx.Context, row *types.ChallengeSubmission) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return errors.New("nil submission")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if len(row.Metadata) == 0 {
		row.Metadata = []byte("{}")
	}
	// Savepoint so a unique violation leaves the caller's transaction usable.
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	return translateInsertErr("create submission", err)
}

func (r *challengeSubmissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChallengeSubmission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ChallengeSubmission
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *challengeSubmissionRepo) CountByStudentKeyModeDay(dbc dbctx.Context, studentID uuid.UUID, challengeKey, mode, day string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.ChallengeSubmission{}).
		Where("student_id = ? AND challenge_key = ? AND mode = ? AND day = ?", studentID, challengeKey, mode, day).
		Count(&n).Error
	return n, err
}

func (r *challengeSubmissionRepo) CountByStudentModeDay(dbc dbctx.Context, studentID uuid.UUID, mode, day string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.ChallengeSubmission{}).
		Where("student_id = ? AND mode = ? AND day = ?", studentID, mode, day).
		Count(&n).Error
	return n, err
}

func (r *challengeSubmissionRepo) TransitionStatus(dbc dbctx.Context, id uuid.UUID, fromStatuses []string, updates map[string]any) (bool, error) {
	if _, ok := updates["status"]; !ok {
		return false, aggregates.ValidationError("status transition requires a target status")
	}
	updates["updated_at"] = time.Now().UTC()
	return r.guard.UpdateByStatus(dbc, submissionTable, id, fromStatuses, updates)
}

func (r *challengeSubmissionRepo) SetPvpScore(dbc dbctx.Context, id uuid.UUID, role types.PvpRole, score int) (bool, error) {
	col := role.ScoreColumn()
	return r.guard.UpdateWhere(dbc, submissionTable, id,
		map[string]any{col: score, "updated_at": time.Now().UTC()},
		"mode = ? AND status = ? AND "+col+" IS NULL", gamedomain.ModePvp, gamedomain.StatusActive,
	)
}

func (r *challengeSubmissionRepo) ResolvePvp(dbc dbctx.Context, id uuid.UUID, winnerID *uuid.UUID, resolvedAt time.Time, xpPaid int64) (bool, error) {
	return r.guard.UpdateWhere(dbc, submissionTable, id,
		map[string]any{
			"status":      gamedomain.StatusCompleted,
			"winner_id":   winnerID,
			"xp_amount":   xpPaid,
			"resolved_at": resolvedAt,
			"updated_at":  resolvedAt,
		},
		"mode = ? AND status = ? AND challenger_score IS NOT NULL AND opponent_score IS NOT NULL",
		gamedomain.ModePvp, gamedomain.StatusActive,
	)
}

func (r *challengeSubmissionRepo) CountPaidPvpForPair(dbc dbctx.Context, a, b uuid.UUID, from, to time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.ChallengeSubmission{}).
		Where("mode = ? AND status = ? AND xp_amount > 0", gamedomain.ModePvp, gamedomain.StatusCompleted).
		Where("resolved_at >= ? AND resolved_at < ?", from, to).
		Where("((student_id = ? AND opponent_id = ?) OR (student_id = ? AND opponent_id = ?))", a, b, b, a).
		Count(&n).Error
	return n, err
}

func (r *challengeSubmissionRepo) ListPendingVideo(dbc dbctx.Context, clubID *uuid.UUID, limit int) ([]*types.ChallengeSubmission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.ChallengeSubmission{}).
		Where("challenge_submission.mode = ? AND challenge_submission.status = ?", gamedomain.ModeSoloVideo, gamedomain.StatusPending)
	if clubID != nil {
		q = q.Joins("JOIN student ON student.id = challenge_submission.student_id").
			Where("student.club_id = ?", *clubID)
	}
	var out []*types.ChallengeSubmission
	if err := q.Order("challenge_submission.created_at ASC, challenge_submission.id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *challengeSubmissionRepo) ListPvpForStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*types.ChallengeSubmission, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.ChallengeSubmission
	if err := t.WithContext(dbc.Ctx).
		Where("mode = ? AND (student_id = ? OR opponent_id = ?)", gamedomain.ModePvp, studentID, studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
