package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/dojoquest-backend/internal/domain/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

const defaultWriteAttempts = 3

// Writer runs a write body inside a transaction, classifies failures and
// re-runs the whole body when Postgres reports a serialization failure or
// deadlock.
type Writer struct {
	Runner      TxRunner
	Hooks       Hooks
	Log         *logger.Logger
	MaxAttempts int
}

func (w Writer) withDefaults() Writer {
	if w.Hooks == nil {
		w.Hooks = noopHooks{}
	}
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = defaultWriteAttempts
	}
	return w
}

// Execute returns nil or an error carrying a domainagg code. Errors the body
// returns with a code already attached pass through untouched.
func (w Writer) Execute(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	w = w.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	if w.Runner == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "writer has no transaction runner", nil)
	}
	start := time.Now()
	var mapped error
	for attempt := 1; ; attempt++ {
		mapped = MapError(op, w.Runner.InTx(ctx, fn))
		if mapped == nil || !domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			break
		}
		if attempt >= w.MaxAttempts || ctx.Err() != nil {
			break
		}
		w.Hooks.IncRetry(op)
		if w.Log != nil {
			w.Log.Warn("retrying write", "op", op, "attempt", attempt, "error", mapped)
		}
	}

	status := "success"
	if mapped != nil {
		status = string(domainagg.CodeOf(mapped))
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			w.Hooks.IncConflict(op)
		}
	}
	w.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}
