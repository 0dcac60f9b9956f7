package gamification

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/dojoquest-backend/internal/domain"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
)

type LeaderboardInput struct {
	Actor Actor
	// ClubID defaults to the caller's club. Students may only read the club
	// stored on their own record.
	ClubID uuid.UUID
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	StudentID   uuid.UUID `json:"student_id"`
	DisplayName string    `json:"display_name"`
	Belt        string    `json:"belt"`
	TotalXP     int64     `json:"total_xp"`
	MonthlyXP   int64     `json:"monthly_xp"`
}

type LeaderboardOutput struct {
	ClubID     uuid.UUID          `json:"club_id"`
	MonthStart time.Time          `json:"month_start"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// GetLeaderboard ranks a club by all-time XP. Equal totals keep the club's
// enrollment order.
func (u Usecases) GetLeaderboard(ctx context.Context, in LeaderboardInput) (LeaderboardOutput, error) {
	const op = "get_leaderboard"
	clubID := in.ClubID
	switch {
	case in.Actor.Role == ctxutil.RoleAdmin:
	case in.Actor.isStaff():
		if clubID == uuid.Nil {
			clubID = in.Actor.ClubID
		}
		if clubID != uuid.Nil && !in.Actor.canManage(&clubID) {
			return LeaderboardOutput{}, forbiddenErr(op, "club_outside_scope")
		}
	default:
		// Students are scoped by their stored club, not the token claim.
		student, err := u.ensureStudent(ctx, op, in.Actor)
		if err != nil {
			return LeaderboardOutput{}, err
		}
		if student.ClubID == nil {
			if clubID != uuid.Nil {
				return LeaderboardOutput{}, forbiddenErr(op, "club_outside_scope")
			}
			break
		}
		if clubID == uuid.Nil {
			clubID = *student.ClubID
		}
		if clubID != *student.ClubID {
			return LeaderboardOutput{}, forbiddenErr(op, "club_outside_scope")
		}
	}
	if clubID == uuid.Nil {
		return LeaderboardOutput{}, validationErr(op, "invalid_club_id", "club id required")
	}

	since := monthStart(u.deps.Clock.Now())
	var (
		students []*types.Student
		monthly  map[uuid.UUID]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := u.deps.Students.ListByClub(dbctx.Context{Ctx: gctx}, clubID)
		students = rows
		return err
	})
	g.Go(func() error {
		sums, err := u.deps.Ledger.SumEarnedSinceByClub(dbctx.Context{Ctx: gctx}, clubID, since)
		monthly = sums
		return err
	})
	if err := g.Wait(); err != nil {
		return LeaderboardOutput{}, internalErr(op, err)
	}

	return LeaderboardOutput{ClubID: clubID, MonthStart: since, Entries: rankStudents(students, monthly)}, nil
}

// rankStudents expects students in enrollment order.
func rankStudents(students []*types.Student, monthly map[uuid.UUID]int64) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(students))
	for _, s := range students {
		entries = append(entries, LeaderboardEntry{
			StudentID:   s.ID,
			DisplayName: s.DisplayName,
			Belt:        s.Belt,
			TotalXP:     s.TotalXP,
			MonthlyXP:   monthly[s.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalXP > entries[j].TotalXP
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
