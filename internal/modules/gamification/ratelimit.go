package gamification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

// LimitPolicy is one of the window rules below.
type LimitPolicy interface {
	policyName() string
}

// TrustPerChallengePolicy allows Limit self-reported submissions per
// challenge per day.
type TrustPerChallengePolicy struct{ Limit int }

// HabitDailyXPPolicy caps the XP all habits may earn in one day. A denial
// means "award nothing", not "reject the check-in".
type HabitDailyXPPolicy struct{ Cap int64 }

type HabitOncePerDayPolicy struct{}

type FamilyOncePerDayPolicy struct{}

// DailyQuizOncePerDayPolicy spans every quiz key and cohort.
type DailyQuizOncePerDayPolicy struct{}

// PvpPairDailyPolicy allows Limit paid matches between the same two students
// per day, in either direction. Matches over the limit still resolve.
type PvpPairDailyPolicy struct {
	Limit      int
	OpponentID uuid.UUID
}

func (TrustPerChallengePolicy) policyName() string   { return "trust_per_challenge" }
func (HabitDailyXPPolicy) policyName() string        { return "habit_daily_xp" }
func (HabitOncePerDayPolicy) policyName() string     { return "habit_once_per_day" }
func (FamilyOncePerDayPolicy) policyName() string    { return "family_once_per_day" }
func (DailyQuizOncePerDayPolicy) policyName() string { return "daily_quiz_once_per_day" }
func (PvpPairDailyPolicy) policyName() string        { return "pvp_pair_daily" }

// Decision is the outcome of a check. Day is the window the caller must
// write its row against.
type Decision struct {
	Allowed   bool
	Reason    string
	Remaining int64
	Day       string
}

// RateLimiter is check-then-act. The unique (student, key, day) indexes
// catch the races it lets through.
type RateLimiter struct {
	submissions repos.ChallengeSubmissionRepo
	habits      repos.HabitLogRepo
	families    repos.FamilyLogRepo
	clock       Clock
}

func NewRateLimiter(submissions repos.ChallengeSubmissionRepo, habits repos.HabitLogRepo, families repos.FamilyLogRepo, clock Clock) *RateLimiter {
	if clock == nil {
		clock = systemClock{}
	}
	return &RateLimiter{submissions: submissions, habits: habits, families: families, clock: clock}
}

func (r *RateLimiter) CheckAndReserve(dbc dbctx.Context, studentID uuid.UUID, challengeKey string, policy LimitPolicy) (Decision, error) {
	day := dayKey(r.clock.Now())
	d, err := r.evaluate(dbc, studentID, challengeKey, day, policy)
	if err != nil {
		return Decision{}, err
	}
	d.Day = day
	if !d.Allowed {
		observability.Current().IncRateLimitDenied(policy.policyName())
	}
	return d, nil
}

func (r *RateLimiter) evaluate(dbc dbctx.Context, studentID uuid.UUID, key, day string, policy LimitPolicy) (Decision, error) {
	switch p := policy.(type) {
	case TrustPerChallengePolicy:
		limit := int64(p.Limit)
		if limit < 1 {
			limit = 1
		}
		n, err := r.submissions.CountByStudentKeyModeDay(dbc, studentID, key, gamedomain.ModeSoloTrust, day)
		if err != nil {
			return Decision{}, fmt.Errorf("count trust submissions: %w", err)
		}
		if n >= limit {
			return Decision{Reason: "trust_daily_limit_reached"}, nil
		}
		return Decision{Allowed: true, Remaining: limit - n}, nil

	case HabitDailyXPPolicy:
		sum, err := r.habits.SumXPByStudentDay(dbc, studentID, day)
		if err != nil {
			return Decision{}, fmt.Errorf("sum habit xp: %w", err)
		}
		if sum >= p.Cap {
			return Decision{Reason: "habit_daily_cap_reached"}, nil
		}
		return Decision{Allowed: true, Remaining: p.Cap - sum}, nil

	case HabitOncePerDayPolicy:
		exists, err := r.habits.Exists(dbc, studentID, key, day)
		if err != nil {
			return Decision{}, fmt.Errorf("habit lookup: %w", err)
		}
		if exists {
			return Decision{Reason: "habit_already_checked_in"}, nil
		}
		return Decision{Allowed: true, Remaining: 1}, nil

	case FamilyOncePerDayPolicy:
		exists, err := r.families.Exists(dbc, studentID, key, day)
		if err != nil {
			return Decision{}, fmt.Errorf("family lookup: %w", err)
		}
		if exists {
			return Decision{Reason: "family_challenge_already_logged"}, nil
		}
		return Decision{Allowed: true, Remaining: 1}, nil

	case DailyQuizOncePerDayPolicy:
		n, err := r.submissions.CountByStudentModeDay(dbc, studentID, gamedomain.ModeQuiz, day)
		if err != nil {
			return Decision{}, fmt.Errorf("count quiz submissions: %w", err)
		}
		if n > 0 {
			return Decision{Reason: "daily_challenge_already_answered"}, nil
		}
		return Decision{Allowed: true, Remaining: 1}, nil

	case PvpPairDailyPolicy:
		limit := int64(p.Limit)
		if limit < 1 {
			limit = 1
		}
		from, err := time.Parse(dayLayout, day)
		if err != nil {
			return Decision{}, fmt.Errorf("parse day: %w", err)
		}
		n, err := r.submissions.CountPaidPvpForPair(dbc, studentID, p.OpponentID, from, from.AddDate(0, 0, 1))
		if err != nil {
			return Decision{}, fmt.Errorf("count paid pvp matches: %w", err)
		}
		if n >= limit {
			return Decision{Reason: "pvp_pair_daily_limit_reached"}, nil
		}
		return Decision{Allowed: true, Remaining: limit - n}, nil

	default:
		return Decision{}, fmt.Errorf("unknown limit policy %T", policy)
	}
}
