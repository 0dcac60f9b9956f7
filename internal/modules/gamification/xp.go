package gamification

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

type AwardXPInput struct {
	Actor     Actor
	StudentID uuid.UUID
	Amount    int64  `validate:"gt=0,lte=10000"`
	Reason    string `validate:"max=280"`
}

type AwardXPOutput struct {
	StudentID uuid.UUID `json:"student_id"`
	Awarded   int64     `json:"awarded"`
	Balance   int64     `json:"balance"`
}

// AwardXP is the staff-only manual award. Unlike the student paths it never
// provisions the target.
func (u Usecases) AwardXP(ctx context.Context, in AwardXPInput) (AwardXPOutput, error) {
	const op = "award_xp"
	if !in.Actor.isStaff() {
		return AwardXPOutput{}, forbiddenErr(op, "coach_role_required")
	}
	if in.StudentID == uuid.Nil {
		return AwardXPOutput{}, validationErr(op, "invalid_student_id", "missing student id")
	}
	if err := u.check(op, in); err != nil {
		return AwardXPOutput{}, err
	}
	student, err := u.deps.Students.GetByID(dbctx.Context{Ctx: ctx}, in.StudentID)
	if err != nil {
		return AwardXPOutput{}, internalErr(op, err)
	}
	if student == nil {
		return AwardXPOutput{}, notFoundErr(op, "student_not_found")
	}
	if !in.Actor.canManage(student.ClubID) {
		return AwardXPOutput{}, forbiddenErr(op, "student_outside_club")
	}

	var balance int64
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		b, err := u.ledger.Award(dbc, in.StudentID, in.Amount, gamedomain.SourceManualAward, map[string]any{
			"awarded_by": in.Actor.ID,
			"reason":     in.Reason,
		})
		balance = b
		return err
	})
	if err != nil {
		return AwardXPOutput{}, writeResult(op, err)
	}
	u.notifyXPAwarded(ctx, in.StudentID, in.Amount, balance, gamedomain.SourceManualAward)
	return AwardXPOutput{StudentID: in.StudentID, Awarded: in.Amount, Balance: balance}, nil
}

type SpendXPInput struct {
	Actor  Actor
	Amount int64  `validate:"gt=0,lte=100000"`
	Reason string `validate:"required,max=280"`
}

type SpendXPOutput struct {
	Spent   int64 `json:"spent"`
	Balance int64 `json:"balance"`
}

func (u Usecases) SpendXP(ctx context.Context, in SpendXPInput) (SpendXPOutput, error) {
	const op = "spend_xp"
	if err := u.check(op, in); err != nil {
		return SpendXPOutput{}, err
	}
	if _, err := u.ensureStudent(ctx, op, in.Actor); err != nil {
		return SpendXPOutput{}, err
	}
	var balance int64
	err := u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		b, err := u.ledger.Spend(dbc, in.Actor.ID, in.Amount, in.Reason)
		balance = b
		return err
	})
	if err != nil {
		return SpendXPOutput{}, writeResult(op, err)
	}
	return SpendXPOutput{Spent: in.Amount, Balance: balance}, nil
}

type BalanceInput struct {
	Actor Actor
	// StudentID defaults to the actor. Reading someone else's balance is staff-only.
	StudentID uuid.UUID
}

type BalanceOutput struct {
	StudentID uuid.UUID `json:"student_id"`
	Belt      string    `json:"belt"`
	TotalXP   int64     `json:"total_xp"`
}

func (u Usecases) GetBalance(ctx context.Context, in BalanceInput) (BalanceOutput, error) {
	const op = "get_balance"
	if in.StudentID == uuid.Nil || in.StudentID == in.Actor.ID {
		student, err := u.ensureStudent(ctx, op, in.Actor)
		if err != nil {
			return BalanceOutput{}, err
		}
		return balanceOutput(student), nil
	}
	if !in.Actor.isStaff() {
		return BalanceOutput{}, forbiddenErr(op, "coach_role_required")
	}
	student, err := u.deps.Students.GetByID(dbctx.Context{Ctx: ctx}, in.StudentID)
	if err != nil {
		return BalanceOutput{}, internalErr(op, err)
	}
	if student == nil {
		return BalanceOutput{}, notFoundErr(op, "student_not_found")
	}
	if !in.Actor.canManage(student.ClubID) {
		return BalanceOutput{}, forbiddenErr(op, "student_outside_club")
	}
	return balanceOutput(student), nil
}

func balanceOutput(s *types.Student) BalanceOutput {
	return BalanceOutput{StudentID: s.ID, Belt: s.Belt, TotalXP: s.TotalXP}
}

func (u Usecases) ListTransactions(ctx context.Context, a Actor, limit int) ([]*types.XPTransaction, error) {
	const op = "list_transactions"
	if _, err := u.ensureStudent(ctx, op, a); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = u.deps.Policy.LedgerHistoryLimit
	}
	rows, err := u.deps.Ledger.ListByStudent(dbctx.Context{Ctx: ctx}, a.ID, limit)
	if err != nil {
		return nil, internalErr(op, err)
	}
	return rows, nil
}
