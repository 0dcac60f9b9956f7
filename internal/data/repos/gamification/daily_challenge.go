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

type DailyChallengeRepo interface {
	// GetByKey returns (nil, nil) when no challenge exists for (date, cohort).
	GetByKey(dbc dbctx.Context, date, cohort string) (*types.DailyChallenge, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DailyChallenge, error)
	// CreateIfAbsent inserts row unless (date, cohort) is already taken. It
	// returns the stored row and whether this call inserted it.
	CreateIfAbsent(dbc dbctx.Context, row *types.DailyChallenge) (*types.DailyChallenge, bool, error)
}

type dailyChallengeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyChallengeRepo(db *gorm.DB, baseLog *logger.Logger) DailyChallengeRepo {
	return &dailyChallengeRepo{db: db, log: baseLog.With("repo", "DailyChallengeRepo")}
}

func (r *dailyChallengeRepo) GetByKey(dbc dbctx.Context, date, cohort string) (*types.DailyChallenge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.DailyChallenge
	err := t.WithContext(dbc.Ctx).
		Where("challenge_date = ? AND cohort = ?", date, cohort).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *dailyChallengeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DailyChallenge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.DailyChallenge
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *dailyChallengeRepo) CreateIfAbsent(dbc dbctx.Context, row *types.DailyChallenge) (*types.DailyChallenge, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, false, errors.New("nil daily challenge")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if len(row.Options) == 0 {
		row.Options = []byte("[]")
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "challenge_date"}, {Name: "cohort"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return row, true, nil
	}
	stored, err := r.GetByKey(dbc, row.ChallengeDate, row.Cohort)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, errors.New("daily challenge vanished after conflict")
	}
	return stored, false, nil
}
