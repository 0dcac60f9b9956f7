package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("PENDING", "pending"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed("VERIFIED", "PENDING"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCASGuardRejectsMissingInputs(t *testing.T) {
	g := NewCASGuard(nil)
	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := g.UpdateByStatus(dbc, "challenge_submission", uuid.New(), nil, map[string]any{"status": "X"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty statuses, got %v", err)
	}
	if _, err := g.UpdateWhere(dbc, "challenge_submission", uuid.New(), map[string]any{"status": "X"}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without db, got %v", err)
	}
}
