package notifyrun

import (
	"context"
	"sync"
	"testing"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/platform/sendgrid"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

type flakyEmail struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *flakyEmail) DispatchEmail(_ context.Context, _ services.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func runWorkflow(t *testing.T, email services.EmailDispatcher) error {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	acts := &Activities{Log: logger.Nop(), Email: email}
	env.RegisterWorkflow(Workflow)
	env.RegisterActivityWithOptions(acts.SendEmail, activity.RegisterOptions{Name: ActivitySendEmail})
	env.ExecuteWorkflow(Workflow, services.EmailMessage{To: "p@example.com", Subject: "s", Text: "t"})
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	return env.GetWorkflowError()
}

func TestWorkflowRetriesTransientFailures(t *testing.T) {
	email := &flakyEmail{failures: 2, err: &sendgrid.HTTPError{StatusCode: 503}}
	if err := runWorkflow(t, email); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if email.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", email.calls)
	}
}

func TestWorkflowStopsOnPermanentFailure(t *testing.T) {
	email := &flakyEmail{failures: 10, err: &sendgrid.HTTPError{StatusCode: 400}}
	if err := runWorkflow(t, email); err == nil {
		t.Fatalf("expected workflow error")
	}
	if email.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", email.calls)
	}
}

func TestSendEmailWithoutDispatcher(t *testing.T) {
	var a *Activities
	if err := a.SendEmail(context.Background(), services.EmailMessage{}); err == nil {
		t.Fatalf("expected not configured error, got %v", err)
	}
}
