package gamification

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type FamilyLogRepo interface {
	Create(dbc dbctx.Context, row *types.FamilyLog) error
	Exists(dbc dbctx.Context, studentID uuid.UUID, challengeKey, day string) (bool, error)
	ListByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) ([]*types.FamilyLog, error)
}

type familyLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFamilyLogRepo(db *gorm.DB, baseLog *logger.Logger) FamilyLogRepo {
	return &familyLogRepo{db: db, log: baseLog.With("repo", "FamilyLogRepo")}
}

func (r *familyLogRepo) Create(dbc dbctx.Context, row *types.FamilyLog) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return errors.New("nil family log")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	return translateInsertErr("create family log", err)
}

func (r *familyLogRepo) Exists(dbc dbctx.Context, studentID uuid.UUID, challengeKey, day string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.FamilyLog{}).
		Where("student_id = ? AND challenge_key = ? AND day = ?", studentID, challengeKey, day).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *familyLogRepo) ListByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) ([]*types.FamilyLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FamilyLog
	if err := t.WithContext(dbc.Ctx).
		Where("student_id = ? AND day = ?", studentID, day).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
