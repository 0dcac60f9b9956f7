package gamification

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepo interface {
	// GetByID returns (nil, nil) when the student does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Student, error)
	// EnsureExists inserts row unless a student with the same id exists, then
	// returns the stored row.
	EnsureExists(dbc dbctx.Context, row *types.Student) (*types.Student, error)
	// ListByClub returns the club's students in creation order.
	ListByClub(dbc dbctx.Context, clubID uuid.UUID) ([]*types.Student, error)
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Student, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Student
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *studentRepo) EnsureExists(dbc dbctx.Context, row *types.Student) (*types.Student, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return nil, errors.New("student id required")
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var stored types.Student
	if err := t.WithContext(dbc.Ctx).Where("id = ?", row.ID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *studentRepo) ListByClub(dbc dbctx.Context, clubID uuid.UUID) ([]*types.Student, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Student
	if err := t.WithContext(dbc.Ctx).
		Where("club_id = ?", clubID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
