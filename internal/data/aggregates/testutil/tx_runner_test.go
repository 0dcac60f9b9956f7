package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

func TestInjectedTxRunner_CommitsOnSuccess(t *testing.T) {
	r := &InjectedTxRunner{}
	called := false
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !called || r.BeginCalls != 1 || r.CommitCalls != 1 || r.RollbackCalls != 0 {
		t.Fatalf("unexpected counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
	}
}

func TestInjectedTxRunner_RollbackRestoresState(t *testing.T) {
	balance := 10
	var snapshot int
	r := &InjectedTxRunner{
		OnBegin:    func() { snapshot = balance },
		OnRollback: func() { balance = snapshot },
	}
	bodyErr := errors.New("boom")
	err := r.InTx(context.Background(), func(_ dbctx.Context) error {
		balance += 50
		return bodyErr
	})
	if !errors.Is(err, bodyErr) {
		t.Fatalf("expected body err, got %v", err)
	}
	if balance != 10 || r.RollbackCalls != 1 {
		t.Fatalf("expected restored balance, got %d (rollbacks=%d)", balance, r.RollbackCalls)
	}
}

func TestInjectedTxRunner_FailCommit(t *testing.T) {
	commitErr := errors.New("commit failed")
	r := &InjectedTxRunner{FailCommit: commitErr}
	if err := r.InTx(context.Background(), func(_ dbctx.Context) error { return nil }); !errors.Is(err, commitErr) {
		t.Fatalf("expected commit err, got %v", err)
	}
	if r.CommitCalls != 0 || r.RollbackCalls != 1 {
		t.Fatalf("unexpected counters commit=%d rollback=%d", r.CommitCalls, r.RollbackCalls)
	}
}
