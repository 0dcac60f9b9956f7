package gamification

import (
	"time"

	"github.com/yungbote/dojoquest-backend/internal/platform/config"
)

// Policy holds the tunable award rules. Catalog XP values are not tunable.
type Policy struct {
	TrustDailyLimit    int           `env:"XP_TRUST_DAILY_LIMIT" envDefault:"1"`
	HabitDailyCap      int64         `env:"XP_HABIT_DAILY_CAP" envDefault:"60"`
	VideoMultiplier    int64         `env:"XP_VIDEO_MULTIPLIER" envDefault:"2"`
	FamilyLossPercent  int64         `env:"XP_FAMILY_LOSS_PERCENT" envDefault:"50"`
	PvpWinXP           int64         `env:"XP_PVP_WIN" envDefault:"50"`
	PvpConsolationXP   int64         `env:"XP_PVP_CONSOLATION" envDefault:"15"`
	PvpPairDailyLimit  int           `env:"XP_PVP_PAIR_DAILY_LIMIT" envDefault:"3"`
	DailyQuizXP        int64         `env:"XP_DAILY_QUIZ" envDefault:"25"`
	FallbackQuizXP     int64         `env:"XP_FALLBACK_QUIZ" envDefault:"15"`
	GenerateTimeout    time.Duration `env:"DAILY_CHALLENGE_GENERATE_TIMEOUT" envDefault:"20s"`
	PendingReviewLimit int           `env:"PENDING_REVIEW_LIMIT" envDefault:"100"`
	LedgerHistoryLimit int           `env:"XP_HISTORY_LIMIT" envDefault:"50"`
}

func DefaultPolicy() Policy {
	return Policy{
		TrustDailyLimit:    1,
		HabitDailyCap:      60,
		VideoMultiplier:    2,
		FamilyLossPercent:  50,
		PvpWinXP:           50,
		PvpConsolationXP:   15,
		PvpPairDailyLimit:  3,
		DailyQuizXP:        25,
		FallbackQuizXP:     15,
		GenerateTimeout:    20 * time.Second,
		PendingReviewLimit: 100,
		LedgerHistoryLimit: 50,
	}
}

func LoadPolicy() (Policy, error) {
	p := Policy{}
	if err := config.ParseEnv(&p); err != nil {
		return Policy{}, err
	}
	return p.normalized(), nil
}

// normalized replaces values that would disable a rule outright.
func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.TrustDailyLimit < 1 {
		p.TrustDailyLimit = d.TrustDailyLimit
	}
	if p.HabitDailyCap < 0 {
		p.HabitDailyCap = d.HabitDailyCap
	}
	if p.VideoMultiplier < 1 {
		p.VideoMultiplier = d.VideoMultiplier
	}
	if p.FamilyLossPercent < 0 || p.FamilyLossPercent > 100 {
		p.FamilyLossPercent = d.FamilyLossPercent
	}
	if p.PvpWinXP <= 0 {
		p.PvpWinXP = d.PvpWinXP
	}
	if p.PvpConsolationXP < 0 {
		p.PvpConsolationXP = d.PvpConsolationXP
	}
	if p.PvpPairDailyLimit < 1 {
		p.PvpPairDailyLimit = d.PvpPairDailyLimit
	}
	if p.DailyQuizXP <= 0 {
		p.DailyQuizXP = d.DailyQuizXP
	}
	if p.FallbackQuizXP <= 0 {
		p.FallbackQuizXP = d.FallbackQuizXP
	}
	if p.GenerateTimeout <= 0 {
		p.GenerateTimeout = d.GenerateTimeout
	}
	if p.PendingReviewLimit <= 0 {
		p.PendingReviewLimit = d.PendingReviewLimit
	}
	if p.LedgerHistoryLimit <= 0 {
		p.LedgerHistoryLimit = d.LedgerHistoryLimit
	}
	return p
}
