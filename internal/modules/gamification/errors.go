package gamification

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	domainagg "github.com/yungbote/dojoquest-backend/internal/domain/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/platform/apierr"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrEntitlementDenied = errors.New("entitlement denied")
	ErrInvalidState      = errors.New("invalid state")
	ErrForbidden         = errors.New("forbidden")
)

func validationErr(op, code, msg string) *apierr.Error {
	return apierr.New(http.StatusBadRequest, code, domainagg.NewError(domainagg.CodeValidation, op, msg, ErrValidation))
}

func notFoundErr(op, code string) *apierr.Error {
	return apierr.New(http.StatusNotFound, code, domainagg.NewError(domainagg.CodeNotFound, op, code, ErrNotFound))
}

func invalidStateErr(op, code, msg string) *apierr.Error {
	return apierr.New(http.StatusConflict, code, domainagg.NewError(domainagg.CodeConflict, op, msg, ErrInvalidState))
}

// guardErr renders a failed aggregates status or CAS guard as a 409.
func guardErr(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return apierr.New(http.StatusConflict, "invalid_state", domainagg.NewError(domainagg.CodeConflict, op, msg, errors.Join(ErrInvalidState, err)))
}

func forbiddenErr(op, code string) *apierr.Error {
	return apierr.New(http.StatusForbidden, code, domainagg.NewError(domainagg.CodePreconditionFailed, op, code, ErrForbidden))
}

// rateLimitedErr carries the caller's unchanged balance so clients can render it.
func rateLimitedErr(op, reason string, balance int64) *apierr.Error {
	return apierr.New(http.StatusTooManyRequests, "rate_limited",
		domainagg.NewError(domainagg.CodePreconditionFailed, op, reason, ErrRateLimited),
	).WithDetails(map[string]any{"reason": reason, "balance": balance})
}

func entitlementDeniedErr(op string, balance int64) *apierr.Error {
	return apierr.New(http.StatusForbidden, "entitlement_denied",
		domainagg.NewError(domainagg.CodePreconditionFailed, op, "premium video proof is not enabled", ErrEntitlementDenied),
	).WithDetails(map[string]any{"balance": balance})
}

func internalErr(op string, err error) *apierr.Error {
	return apierr.New(http.StatusInternalServerError, op+"_failed", err)
}

// ledgerErr translates the ledger repo's sentinels.
func ledgerErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repos.ErrStudentNotFound):
		return notFoundErr(op, "student_not_found")
	case errors.Is(err, repos.ErrInsufficientXP):
		return invalidStateErr(op, "insufficient_xp", "balance does not cover the spend")
	default:
		return fmt.Errorf("apply ledger entry: %w", err)
	}
}

// writeResult renders the error a Writer.Execute call returned.
func writeResult(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeNotFound:
		return apierr.New(http.StatusNotFound, "not_found", err)
	case domainagg.CodeConflict:
		return apierr.New(http.StatusConflict, "conflict", err)
	}
	return internalErr(op, err)
}
