package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs write bodies without a database. OnBegin/OnRollback let
// in-memory fakes snapshot and restore their state so a failed body leaves no
// partial writes behind, mirroring a real rollback.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin  error
	FailCommit error

	OnBegin    func()
	OnRollback func()

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin, failCommit := r.FailBegin, r.FailCommit
	onBegin, onRollback := r.OnBegin, r.OnRollback
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if onBegin != nil {
		onBegin()
	}
	rollback := func(err error) error {
		if onRollback != nil {
			onRollback()
		}
		r.mu.Lock()
		r.RollbackCalls++
		r.mu.Unlock()
		return err
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			return rollback(err)
		}
	}
	if failCommit != nil {
		return rollback(failCommit)
	}
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
	return nil
}
