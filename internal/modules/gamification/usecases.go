package gamification

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/dojoquest-backend/internal/data/aggregates"
	"github.com/yungbote/dojoquest-backend/internal/data/cache"
	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

type UsecasesDeps struct {
	Log    *logger.Logger
	Tx     aggregates.TxRunner
	Hooks  aggregates.Hooks
	Policy Policy
	Clock  Clock

	Students    repos.StudentRepo
	Clubs       repos.ClubRepo
	Ledger      repos.XPLedgerRepo
	Submissions repos.ChallengeSubmissionRepo
	Daily       repos.DailyChallengeRepo
	HabitLogs   repos.HabitLogRepo
	FamilyLogs  repos.FamilyLogRepo

	DailyCache  cache.DailyChallengeCache
	Generator   services.ChallengeGenerator
	Entitlement services.EntitlementService
	Videos      services.VideoProofStore
	Notify      services.Notifier
}

type Usecases struct {
	deps     UsecasesDeps
	ledger   *Ledger
	limiter  *RateLimiter
	writer   aggregates.Writer
	generate *singleflight.Group
	validate *validator.Validate
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Policy == (Policy{}) {
		deps.Policy = DefaultPolicy()
	}
	deps.Policy = deps.Policy.normalized()
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	log := deps.Log.With("module", "gamification")
	deps.Log = log
	return Usecases{
		deps:     deps,
		ledger:   NewLedger(log, deps.Ledger, deps.Students),
		limiter:  NewRateLimiter(deps.Submissions, deps.HabitLogs, deps.FamilyLogs, deps.Clock),
		writer:   aggregates.Writer{Runner: deps.Tx, Hooks: deps.Hooks, Log: log},
		generate: &singleflight.Group{},
		validate: validator.New(),
	}
}

// Actor is the authenticated caller of a usecase.
type Actor struct {
	ID     uuid.UUID
	Role   string
	ClubID uuid.UUID
}

func ActorFromRequest(rd *ctxutil.RequestData) Actor {
	if rd == nil {
		return Actor{}
	}
	return Actor{ID: rd.UserID, Role: rd.Role, ClubID: rd.ClubID}
}

func (a Actor) isStaff() bool {
	return a.Role == ctxutil.RoleCoach || a.Role == ctxutil.RoleAdmin
}

// canManage reports whether a staff actor may act on a student of clubID.
func (a Actor) canManage(clubID *uuid.UUID) bool {
	switch a.Role {
	case ctxutil.RoleAdmin:
		return true
	case ctxutil.RoleCoach:
		return clubID != nil && a.ClubID != uuid.Nil && *clubID == a.ClubID
	default:
		return false
	}
}

// ensureStudent auto-provisions the caller into the default cohort on first use.
func (u Usecases) ensureStudent(ctx context.Context, op string, a Actor) (*types.Student, error) {
	if a.ID == uuid.Nil {
		return nil, validationErr(op, "invalid_student_id", "missing student id")
	}
	row := &types.Student{
		ID:        a.ID,
		Belt:      gamedomain.Belts[0],
		Cosmetics: datatypes.JSON([]byte("{}")),
	}
	if a.ClubID != uuid.Nil {
		clubID := a.ClubID
		row.ClubID = &clubID
	}
	student, err := u.deps.Students.EnsureExists(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, internalErr(op, err)
	}
	return student, nil
}

// check runs struct validation and renders the first failing field as
// invalid_<field>.
func (u Usecases) check(op string, in any) error {
	err := u.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return validationErr(op, "invalid_"+snakeCase(fe.Field()), fe.Error())
	}
	return validationErr(op, "invalid_input", err.Error())
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
