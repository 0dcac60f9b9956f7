package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/data/cache"
	dbpkg "github.com/yungbote/dojoquest-backend/internal/data/db"
	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	"github.com/yungbote/dojoquest-backend/internal/modules/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
	"github.com/yungbote/dojoquest-backend/internal/realtime/bus"
	"github.com/yungbote/dojoquest-backend/internal/services"
	"github.com/yungbote/dojoquest-backend/internal/temporalx/notifyrun"
)

type Repos struct {
	Students    repos.StudentRepo
	Clubs       repos.ClubRepo
	Ledger      repos.XPLedgerRepo
	Submissions repos.ChallengeSubmissionRepo
	Daily       repos.DailyChallengeRepo
	HabitLogs   repos.HabitLogRepo
	FamilyLogs  repos.FamilyLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Students:    repos.NewStudentRepo(db, log),
		Clubs:       repos.NewClubRepo(db, log),
		Ledger:      repos.NewXPLedgerRepo(db, log),
		Submissions: repos.NewChallengeSubmissionRepo(db, log),
		Daily:       repos.NewDailyChallengeRepo(db, log),
		HabitLogs:   repos.NewHabitLogRepo(db, log),
		FamilyLogs:  repos.NewFamilyLogRepo(db, log),
	}
}

type Services struct {
	Auth         services.AuthService
	Entitlement  services.EntitlementService
	Videos       services.VideoProofStore
	Generator    services.ChallengeGenerator
	Notifier     services.Notifier
	Bus          bus.Bus
	Gamification gamification.Usecases
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, clients Clients, r Repos, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")
	var s Services

	auth, err := services.NewAuthService(log, cfg.JWTSecret(log), cfg.JWTIssuer)
	if err != nil {
		return s, fmt.Errorf("init auth: %w", err)
	}
	s.Auth = auth
	s.Entitlement = services.NewEntitlementService(log, r.Clubs)
	if clients.Bucket != nil {
		s.Videos = services.NewVideoProofStore(log, clients.Bucket)
	}
	s.Generator = services.NewChallengeGenerator(log, clients.OpenAI)

	var publisher realtime.Publisher = realtime.NewLocalPublisher(hub)
	if clients.Redis != nil {
		b, err := bus.NewRedisBus(log, clients.Redis, cfg.SSEChannel)
		if err != nil {
			return s, fmt.Errorf("init sse bus: %w", err)
		}
		if err := b.StartForwarder(ctx, hub.Broadcast); err != nil {
			return s, fmt.Errorf("start sse forwarder: %w", err)
		}
		s.Bus = b
		publisher = b
	}

	var email services.EmailDispatcher
	switch {
	case clients.Temporal != nil:
		email = notifyrun.NewDispatcher(clients.Temporal, clients.TemporalCfg.TaskQueue)
	case clients.SendGrid != nil:
		email = services.NewSendGridDispatcher(clients.SendGrid, cfg.EmailFromAddr, cfg.EmailFromName)
	default:
		log.Warn("No email delivery configured; email notifications are skipped")
	}
	s.Notifier = services.NewNotifier(services.NotifierDeps{
		Log:      log,
		Realtime: publisher,
		Email:    email,
		Timeout:  cfg.NotifyTimeout,
	})

	policy, err := gamification.LoadPolicy()
	if err != nil {
		return s, fmt.Errorf("load gamification policy: %w", err)
	}
	if cfg.AutoMigrate {
		if err := dbpkg.EnsureTrustSubmissionIndex(clients.Postgres.DB(), policy.TrustDailyLimit); err != nil {
			return s, err
		}
	}

	var daily cache.DailyChallengeCache
	if clients.Redis != nil {
		daily = cache.NewRedisDailyChallengeCache(clients.Redis, log, cfg.RedisPrefix)
	}

	db := clients.Postgres.DB()
	s.Gamification = gamification.New(gamification.UsecasesDeps{
		Log:    log,
		Tx:     aggregates.NewGormTxRunner(db),
		Hooks:  aggregates.NewObservabilityHooks(observability.Current()),
		Policy: policy,

		Students:    r.Students,
		Clubs:       r.Clubs,
		Ledger:      r.Ledger,
		Submissions: r.Submissions,
		Daily:       r.Daily,
		HabitLogs:   r.HabitLogs,
		FamilyLogs:  r.FamilyLogs,

		DailyCache:  daily,
		Generator:   s.Generator,
		Entitlement: s.Entitlement,
		Videos:      s.Videos,
		Notify:      s.Notifier,
	})
	return s, nil
}
