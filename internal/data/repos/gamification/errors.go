package gamification

import (
	"errors"
	"fmt"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
)

var (
	// ErrStudentNotFound is returned by ledger writes that matched no student row.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInsufficientXP is returned by a spend larger than the current balance.
	ErrInsufficientXP = errors.New("insufficient xp")
	// ErrDuplicate wraps unique-index violations on per-day rows.
	ErrDuplicate = errors.New("duplicate row")
)

func translateInsertErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if aggregates.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %v", what, ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
