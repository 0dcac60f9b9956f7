package gamification

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type HabitLogRepo interface {
	// Create returns an error wrapping ErrDuplicate for a second check-in of the same habit on the same day.
	Create(dbc dbctx.Context, row *types.HabitLog) error
	Exists(dbc dbctx.Context, studentID uuid.UUID, habitKey, day string) (bool, error)
	ListByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) ([]*types.HabitLog, error)
	SumXPByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) (int64, error)
}

type habitLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitLogRepo(db *gorm.DB, baseLog *logger.Logger) HabitLogRepo {
	return &habitLogRepo{db: db, log: baseLog.With("repo", "HabitLogRepo")}
}

func (r *habitLogRepo) Create(dbc dbctx.Context, row *types.HabitLog) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return errors.New("nil habit log")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	return translateInsertErr("create habit log", err)
}

func (r *habitLogRepo) Exists(dbc dbctx.Context, studentID uuid.UUID, habitKey, day string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.HabitLog{}).
		Where("student_id = ? AND habit_key = ? AND day = ?", studentID, habitKey, day).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *habitLogRepo) ListByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) ([]*types.HabitLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.HabitLog
	if err := t.WithContext(dbc.Ctx).
		Where("student_id = ? AND day = ?", studentID, day).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *habitLogRepo) SumXPByStudentDay(dbc dbctx.Context, studentID uuid.UUID, day string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var total int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.HabitLog{}).
		Select("COALESCE(SUM(xp_awarded), 0)").
		Where("student_id = ? AND day = ?", studentID, day).
		Scan(&total).Error
	return total, err
}
