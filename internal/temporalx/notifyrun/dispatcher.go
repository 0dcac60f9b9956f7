package notifyrun

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/dojoquest-backend/internal/services"
)

type dispatcher struct {
	tc        temporalsdkclient.Client
	taskQueue string
}

// NewDispatcher returns an EmailDispatcher that starts a notify workflow and
// returns once Temporal has accepted it.
func NewDispatcher(tc temporalsdkclient.Client, taskQueue string) services.EmailDispatcher {
	return &dispatcher{tc: tc, taskQueue: taskQueue}
}

func (d *dispatcher) DispatchEmail(ctx context.Context, msg services.EmailMessage) error {
	_, err := d.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        "notify-email-" + uuid.NewString(),
		TaskQueue: d.taskQueue,
	}, WorkflowName, msg)
	if err != nil {
		return fmt.Errorf("start notify workflow: %w", err)
	}
	return nil
}
