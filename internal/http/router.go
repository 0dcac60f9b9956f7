package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/dojoquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/dojoquest-backend/internal/http/middleware"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	XPHandler             *httpH.XPHandler
	ChallengeHandler      *httpH.ChallengeHandler
	DailyChallengeHandler *httpH.DailyChallengeHandler
	HabitHandler          *httpH.HabitHandler
	PvpHandler            *httpH.PvpHandler
	LeaderboardHandler    *httpH.LeaderboardHandler
	RealtimeHandler       *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	staff := api.Group("/")
	if cfg.AuthMiddleware != nil {
		staff.Use(cfg.AuthMiddleware.RequireStaff())
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
	}

	// XP ledger
	if cfg.XPHandler != nil {
		api.GET("/xp/balance", cfg.XPHandler.GetBalance)
		api.GET("/xp/transactions", cfg.XPHandler.ListTransactions)
		api.POST("/xp/spend", cfg.XPHandler.SpendXP)
		api.GET("/students/:id/balance", cfg.XPHandler.GetStudentBalance)
		staff.POST("/xp/award", cfg.XPHandler.AwardXP)
	}

	// Arena challenges and coach review
	if cfg.ChallengeHandler != nil {
		api.GET("/catalog", cfg.ChallengeHandler.GetCatalog)
		api.POST("/challenges/trust", cfg.ChallengeHandler.SubmitTrust)
		api.POST("/challenges/video", cfg.ChallengeHandler.SubmitVideo)
		staff.GET("/submissions/pending", cfg.ChallengeHandler.ListPending)
		staff.POST("/submissions/:id/verify", cfg.ChallengeHandler.Verify)
	}

	if cfg.DailyChallengeHandler != nil {
		api.GET("/daily-challenge", cfg.DailyChallengeHandler.GetToday)
		api.POST("/daily-challenge/answer", cfg.DailyChallengeHandler.SubmitAnswer)
	}

	// Habits and family challenges
	if cfg.HabitHandler != nil {
		api.GET("/habits/status", cfg.HabitHandler.Status)
		api.POST("/habits/:key/check-in", cfg.HabitHandler.CheckIn)
		api.POST("/family-challenges/:key", cfg.HabitHandler.SubmitFamily)
	}

	if cfg.PvpHandler != nil {
		api.GET("/pvp", cfg.PvpHandler.List)
		api.POST("/pvp", cfg.PvpHandler.Create)
		api.POST("/pvp/:id/respond", cfg.PvpHandler.Respond)
		api.POST("/pvp/:id/score", cfg.PvpHandler.SubmitScore)
	}

	if cfg.LeaderboardHandler != nil {
		api.GET("/leaderboard", cfg.LeaderboardHandler.Get)
	}

	return r
}
