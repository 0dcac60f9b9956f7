package gamification

import (
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ClubRepo interface {
	// GetByID returns (nil, nil) when the club does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Club, error)
}

type clubRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClubRepo(db *gorm.DB, baseLog *logger.Logger) ClubRepo {
	return &clubRepo{db: db, log: baseLog.With("repo", "ClubRepo")}
}

func (r *clubRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Club, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Club
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
