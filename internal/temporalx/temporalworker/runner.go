package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
	"github.com/yungbote/dojoquest-backend/internal/temporalx"
	"github.com/yungbote/dojoquest-backend/internal/temporalx/notifyrun"
)

// Runner hosts the notification workflows on the configured task queue.
type Runner struct {
	log   *logger.Logger
	tc    temporalsdkclient.Client
	cfg   temporalx.Config
	email services.EmailDispatcher
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, email services.EmailDispatcher) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if email == nil {
		return nil, fmt.Errorf("temporal worker needs an email dispatcher")
	}
	return &Runner{log: log.With("component", "TemporalWorker"), tc: tc, cfg: cfg, email: email}, nil
}

// Start polls until ctx is done. Start failures are retried for
// TEMPORAL_WORKER_START_MAX_WAIT_SECONDS.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	maxWait := envutil.Seconds("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60*time.Second)
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && r.cfg.AutoRegisterNamespace {
			_ = temporalx.EnsureNamespace(ctx, r.log, r.cfg)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("temporal worker start (namespace=%s): %w", r.cfg.Namespace, startErr)
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(temporalx.ClampBackoff(250*time.Millisecond, 5*time.Second, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	acts := &notifyrun.Activities{Log: r.log, Email: r.email}
	w.RegisterWorkflowWithOptions(notifyrun.Workflow, workflow.RegisterOptions{Name: notifyrun.WorkflowName})
	w.RegisterActivityWithOptions(acts.SendEmail, activity.RegisterOptions{Name: notifyrun.ActivitySendEmail})
	return w
}
