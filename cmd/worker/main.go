package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/dojoquest-backend/internal/platform/config"
	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/platform/sendgrid"
	"github.com/yungbote/dojoquest-backend/internal/platform/shutdown"
	"github.com/yungbote/dojoquest-backend/internal/services"
	"github.com/yungbote/dojoquest-backend/internal/temporalx"
	"github.com/yungbote/dojoquest-backend/internal/temporalx/temporalworker"
)

// The worker executes notification workflows started by the API.
func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With("service", "dojoquest-worker")

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	cfg := temporalx.LoadConfig()
	if !cfg.Enabled() {
		log.Error("TEMPORAL_ADDRESS is required for the worker")
		os.Exit(1)
	}
	tc, err := temporalx.NewClient(log, cfg)
	if err != nil {
		log.Error("temporal client init failed", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	sg, err := sendgrid.NewFromEnv(log)
	if err != nil || sg == nil {
		log.Error("sendgrid client init failed; SENDGRID_API_KEY is required", "error", err)
		os.Exit(1)
	}
	email := services.NewSendGridDispatcher(sg,
		envutil.String("SENDGRID_FROM_EMAIL", ""),
		envutil.String("SENDGRID_FROM_NAME", "Dojo Quest"),
	)

	runner, err := temporalworker.NewRunner(log, tc, cfg, email)
	if err != nil {
		log.Error("worker init failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Start(ctx); err != nil {
		log.Error("worker start failed", "error", err)
		os.Exit(1)
	}
	<-ctx.Done()
	log.Info("worker stopped")
}
