package notifyrun

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/dojoquest-backend/internal/services"
)

const (
	WorkflowName      = "notify_email"
	ActivitySendEmail = "notify_send_email"
)

// Workflow delivers one email with provider retries handled by Temporal.
func Workflow(ctx workflow.Context, msg services.EmailMessage) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    6,
		},
	})
	return workflow.ExecuteActivity(ctx, ActivitySendEmail, msg).Get(ctx, nil)
}
