package gamification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

type HabitCheckInInput struct {
	Actor    Actor
	HabitKey string `validate:"required,max=64"`
}

type HabitCheckInOutput struct {
	HabitKey   string `json:"habit_key"`
	Day        string `json:"day"`
	XPAwarded  int64  `json:"xp_awarded"`
	XPToday    int64  `json:"xp_today"`
	DailyCap   int64  `json:"daily_cap"`
	CapReached bool   `json:"cap_reached"`
	Balance    int64  `json:"balance"`
}

// CheckInHabit always records the check-in. The award is the habit's XP
// clipped to what is left of the daily cap, so it may be zero.
func (u Usecases) CheckInHabit(ctx context.Context, in HabitCheckInInput) (HabitCheckInOutput, error) {
	const op = "check_in_habit"
	if err := u.check(op, in); err != nil {
		return HabitCheckInOutput{}, err
	}
	habit, ok := lookupHabit(in.HabitKey)
	if !ok {
		return HabitCheckInOutput{}, validationErr(op, "unknown_habit", fmt.Sprintf("unknown habit %q", in.HabitKey))
	}
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return HabitCheckInOutput{}, err
	}

	out := HabitCheckInOutput{HabitKey: habit.Key, DailyCap: u.deps.Policy.HabitDailyCap}
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		once, err := u.limiter.CheckAndReserve(dbc, student.ID, habit.Key, HabitOncePerDayPolicy{})
		if err != nil {
			return err
		}
		if !once.Allowed {
			return rateLimitedErr(op, once.Reason, student.TotalXP)
		}
		allowance, err := u.limiter.CheckAndReserve(dbc, student.ID, habit.Key, HabitDailyXPPolicy{Cap: u.deps.Policy.HabitDailyCap})
		if err != nil {
			return err
		}
		award := min(habit.XP, allowance.Remaining)

		if err := u.deps.HabitLogs.Create(dbc, &types.HabitLog{
			ID:        uuid.New(),
			StudentID: student.ID,
			HabitKey:  habit.Key,
			Day:       once.Day,
			XPAwarded: award,
		}); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return rateLimitedErr(op, once.Reason, student.TotalXP)
			}
			return err
		}

		if award > 0 {
			out.Balance, err = u.ledger.Award(dbc, student.ID, award, gamedomain.SourceHabit, map[string]any{
				"habit_key": habit.Key,
				"day":       once.Day,
			})
		} else {
			out.Balance, err = u.ledger.Balance(dbc, student.ID)
		}
		if err != nil {
			return err
		}
		out.Day = once.Day
		out.XPAwarded = award
		out.XPToday, err = u.deps.HabitLogs.SumXPByStudentDay(dbc, student.ID, once.Day)
		return err
	})
	if err != nil {
		return HabitCheckInOutput{}, writeResult(op, err)
	}
	out.CapReached = out.XPToday >= out.DailyCap
	u.notifyXPAwarded(ctx, student.ID, out.XPAwarded, out.Balance, gamedomain.SourceHabit)
	return out, nil
}

type HabitStatusItem struct {
	Habit
	Completed bool  `json:"completed"`
	XPAwarded int64 `json:"xp_awarded"`
}

type HabitStatusOutput struct {
	Day        string            `json:"day"`
	Habits     []HabitStatusItem `json:"habits"`
	XPToday    int64             `json:"xp_today"`
	DailyCap   int64             `json:"daily_cap"`
	CapReached bool              `json:"cap_reached"`
}

func (u Usecases) GetHabitStatus(ctx context.Context, a Actor) (HabitStatusOutput, error) {
	const op = "get_habit_status"
	student, err := u.ensureStudent(ctx, op, a)
	if err != nil {
		return HabitStatusOutput{}, err
	}
	day := dayKey(u.deps.Clock.Now())
	logs, err := u.deps.HabitLogs.ListByStudentDay(dbctx.Context{Ctx: ctx}, student.ID, day)
	if err != nil {
		return HabitStatusOutput{}, internalErr(op, err)
	}
	done := make(map[string]*types.HabitLog, len(logs))
	for _, l := range logs {
		done[l.HabitKey] = l
	}

	out := HabitStatusOutput{Day: day, DailyCap: u.deps.Policy.HabitDailyCap, Habits: make([]HabitStatusItem, 0, len(habits))}
	for _, h := range habits {
		item := HabitStatusItem{Habit: h}
		if l, ok := done[h.Key]; ok {
			item.Completed = true
			item.XPAwarded = l.XPAwarded
			out.XPToday += l.XPAwarded
		}
		out.Habits = append(out.Habits, item)
	}
	out.CapReached = out.XPToday >= out.DailyCap
	return out, nil
}
