package gamification

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type XPLedgerRepo interface {
	// Apply appends entry and moves student.total_xp by entry.Amount in one
	// transaction (a savepoint when dbc already carries one). A negative amount
	// only applies when the balance covers it. Returns the new balance.
	Apply(dbc dbctx.Context, entry *types.XPTransaction) (int64, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*types.XPTransaction, error)
	// SumEarnedSinceByClub sums the EARN entries created at or after since
	// for every student of a club.
	SumEarnedSinceByClub(dbc dbctx.Context, clubID uuid.UUID, since time.Time) (map[uuid.UUID]int64, error)
}

type xpLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewXPLedgerRepo(db *gorm.DB, baseLog *logger.Logger) XPLedgerRepo {
	return &xpLedgerRepo{db: db, log: baseLog.With("repo", "XPLedgerRepo")}
}

type balanceRow struct {
	TotalXP int64
}

func (r *xpLedgerRepo) Apply(dbc dbctx.Context, entry *types.XPTransaction) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if entry == nil || entry.StudentID == uuid.Nil {
		return 0, aggregates.ValidationError("ledger entry requires a student")
	}
	if entry.Amount == 0 {
		return 0, aggregates.ValidationError("ledger entry amount must be non-zero")
	}
	if err := checkDirection(entry); err != nil {
		return 0, err
	}

	var balance int64
	err := t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var rows []balanceRow
		if err := tx.Raw(
			`UPDATE student
			    SET total_xp = total_xp + ?, updated_at = now()
			  WHERE id = ? AND total_xp + ? >= 0
			RETURNING total_xp`,
			entry.Amount, entry.StudentID, entry.Amount,
		).Scan(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			var exists int64
			if err := tx.Model(&types.Student{}).Where("id = ?", entry.StudentID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrStudentNotFound
			}
			return ErrInsufficientXP
		}
		balance = rows[0].TotalXP
		if len(entry.Metadata) == 0 {
			entry.Metadata = []byte("{}")
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *xpLedgerRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID, limit int) ([]*types.XPTransaction, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.XPTransaction
	if err := t.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type earnedRow struct {
	StudentID uuid.UUID
	Earned    int64
}

func (r *xpLedgerRepo) SumEarnedSinceByClub(dbc dbctx.Context, clubID uuid.UUID, since time.Time) (map[uuid.UUID]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []earnedRow
	if err := t.WithContext(dbc.Ctx).
		Table("xp_transaction AS x").
		Select("x.student_id, COALESCE(SUM(x.amount), 0) AS earned").
		Joins("JOIN student AS s ON s.id = x.student_id").
		Where("s.club_id = ? AND x.direction = ? AND x.created_at >= ?", clubID, gamedomain.DirectionEarn, since).
		Group("x.student_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.StudentID] = row.Earned
	}
	return out, nil
}

// checkDirection keeps the sign of Amount consistent with Direction: EARN
// entries are positive, SPEND entries negative.
func checkDirection(entry *types.XPTransaction) error {
	switch entry.Direction {
	case gamedomain.DirectionEarn:
		if entry.Amount < 0 {
			return aggregates.InvariantError("earn entry with a negative amount")
		}
	case gamedomain.DirectionSpend:
		if entry.Amount > 0 {
			return aggregates.InvariantError("spend entry with a positive amount")
		}
	default:
		return aggregates.InvariantError("unknown ledger direction " + entry.Direction)
	}
	return nil
}
