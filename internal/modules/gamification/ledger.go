package gamification

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// Ledger is the only writer of student.total_xp. Every call takes the
// caller's dbctx so an award commits together with the row that earned it.
type Ledger struct {
	log      *logger.Logger
	repo     repos.XPLedgerRepo
	students repos.StudentRepo
}

func NewLedger(log *logger.Logger, repo repos.XPLedgerRepo, students repos.StudentRepo) *Ledger {
	return &Ledger{log: log.With("component", "Ledger"), repo: repo, students: students}
}

// Award appends an EARN entry and returns the new balance.
func (l *Ledger) Award(dbc dbctx.Context, studentID uuid.UUID, amount int64, source string, metadata map[string]any) (int64, error) {
	const op = "ledger.award"
	if studentID == uuid.Nil {
		return 0, validationErr(op, "invalid_student_id", "missing student id")
	}
	if amount <= 0 {
		return 0, validationErr(op, "invalid_amount", "award amount must be positive")
	}
	return l.apply(op, dbc, studentID, amount, gamedomain.DirectionEarn, source, metadata)
}

// Spend appends a SPEND entry. It fails with insufficient_xp rather than
// letting the balance go negative.
func (l *Ledger) Spend(dbc dbctx.Context, studentID uuid.UUID, amount int64, reason string) (int64, error) {
	const op = "ledger.spend"
	if studentID == uuid.Nil {
		return 0, validationErr(op, "invalid_student_id", "missing student id")
	}
	if amount <= 0 {
		return 0, validationErr(op, "invalid_amount", "spend amount must be positive")
	}
	return l.apply(op, dbc, studentID, -amount, gamedomain.DirectionSpend, gamedomain.SourceRedemption, map[string]any{"reason": reason})
}

func (l *Ledger) Balance(dbc dbctx.Context, studentID uuid.UUID) (int64, error) {
	const op = "ledger.balance"
	student, err := l.students.GetByID(dbc, studentID)
	if err != nil {
		return 0, internalErr(op, err)
	}
	if student == nil {
		return 0, notFoundErr(op, "student_not_found")
	}
	return student.TotalXP, nil
}

func (l *Ledger) apply(op string, dbc dbctx.Context, studentID uuid.UUID, amount int64, direction, source string, metadata map[string]any) (int64, error) {
	meta := []byte("{}")
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return 0, internalErr(op, fmt.Errorf("encode ledger metadata: %w", err))
		}
		meta = b
	}
	balance, err := l.repo.Apply(dbc, &types.XPTransaction{
		ID:        uuid.New(),
		StudentID: studentID,
		Amount:    amount,
		Direction: direction,
		Source:    source,
		Metadata:  meta,
	})
	if err != nil {
		return 0, ledgerErr(op, err)
	}
	observability.Current().ObserveLedgerEntry(direction, source, amount)
	l.log.Debug("Ledger entry applied", "student_id", studentID, "direction", direction, "source", source, "amount", amount, "balance", balance)
	return balance, nil
}
