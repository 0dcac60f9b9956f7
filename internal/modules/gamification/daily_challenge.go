package gamification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/data/repos"
	types "github.com/yungbote/dojoquest-backend/internal/domain"
	gamedomain "github.com/yungbote/dojoquest-backend/internal/domain/gamification"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/dbctx"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

// Provenance of a served daily challenge.
const (
	ProvenanceCache     = "cache"
	ProvenanceStored    = "stored"
	ProvenanceGenerated = "generated"
	ProvenanceFallback  = "fallback"
)

var artStyles = []string{"karate", "taekwondo", "judo", "kung fu", "jiu-jitsu", "aikido", "kickboxing"}

// artStyleFor rotates the theme by day of year so every cohort shares it.
func artStyleFor(t time.Time) string {
	return artStyles[t.UTC().YearDay()%len(artStyles)]
}

type DailyChallengeView struct {
	ID            uuid.UUID `json:"id"`
	ChallengeDate string    `json:"challenge_date"`
	Cohort        string    `json:"cohort"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	XPReward      int64     `json:"xp_reward"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	ArtStyle      string    `json:"art_style"`
	Fallback      bool      `json:"fallback"`
	Provenance    string    `json:"provenance"`
	// CorrectOption is only used server-side and for the fallback, which
	// clients grade themselves.
	CorrectOption *int `json:"correct_option,omitempty"`
}

type DailyChallengeInput struct {
	Actor Actor
	// Cohort defaults to the student's belt.
	Cohort string
}

type DailyChallengeOutput struct {
	Challenge       DailyChallengeView `json:"challenge"`
	AlreadyAnswered bool               `json:"already_answered"`
}

// GetTodaysDailyChallenge serves the (day, cohort) challenge, generating it
// at most once. Generation failures serve a fallback that is never stored, so
// the next request tries again.
func (u Usecases) GetTodaysDailyChallenge(ctx context.Context, in DailyChallengeInput) (DailyChallengeOutput, error) {
	const op = "get_daily_challenge"
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return DailyChallengeOutput{}, err
	}
	cohort := strings.ToLower(strings.TrimSpace(in.Cohort))
	if cohort == "" {
		cohort = student.Belt
	}
	if !gamedomain.IsBelt(cohort) {
		return DailyChallengeOutput{}, validationErr(op, "invalid_cohort", fmt.Sprintf("unknown cohort %q", cohort))
	}

	now := u.deps.Clock.Now()
	date := dayKey(now)
	view, err := u.dailyChallenge(ctx, date, cohort, now)
	if err != nil {
		return DailyChallengeOutput{}, internalErr(op, err)
	}
	observability.Current().IncDailyChallenge(view.Provenance)

	answered, err := u.deps.Submissions.CountByStudentModeDay(dbctx.Context{Ctx: ctx}, student.ID, gamedomain.ModeQuiz, date)
	if err != nil {
		return DailyChallengeOutput{}, internalErr(op, err)
	}
	return DailyChallengeOutput{Challenge: view, AlreadyAnswered: answered > 0}, nil
}

func (u Usecases) dailyChallenge(ctx context.Context, date, cohort string, now time.Time) (DailyChallengeView, error) {
	if u.deps.DailyCache != nil {
		row, err := u.deps.DailyCache.Get(ctx, date, cohort)
		if err != nil {
			u.deps.Log.Warn("Daily challenge cache read failed", "date", date, "cohort", cohort, "error", err)
		} else if row != nil {
			return u.challengeView(row, ProvenanceCache), nil
		}
	}

	row, err := u.deps.Daily.GetByKey(dbctx.Context{Ctx: ctx}, date, cohort)
	if err != nil {
		return DailyChallengeView{}, fmt.Errorf("load daily challenge: %w", err)
	}
	if row != nil {
		u.cacheChallenge(ctx, row)
		return u.challengeView(row, ProvenanceStored), nil
	}

	// Concurrent misses for the same key share one generator call.
	v, err, _ := u.generate.Do(date+":"+cohort, func() (any, error) {
		return u.generateChallenge(context.WithoutCancel(ctx), date, cohort, now)
	})
	if err != nil {
		return DailyChallengeView{}, err
	}
	return v.(DailyChallengeView), nil
}

func (u Usecases) generateChallenge(ctx context.Context, date, cohort string, now time.Time) (DailyChallengeView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if row, err := u.deps.Daily.GetByKey(dbc, date, cohort); err != nil {
		return DailyChallengeView{}, fmt.Errorf("load daily challenge: %w", err)
	} else if row != nil {
		return u.challengeView(row, ProvenanceStored), nil
	}

	style := artStyleFor(now)
	gen, err := u.callGenerator(ctx, services.ChallengeRequest{Date: date, Cohort: cohort, ArtStyle: style})
	if err != nil {
		u.deps.Log.Warn("Daily challenge generation failed; serving fallback", "date", date, "cohort", cohort, "error", err)
		return u.fallbackChallenge(date, cohort, style), nil
	}

	options, err := json.Marshal(gen.Options)
	if err != nil {
		return DailyChallengeView{}, fmt.Errorf("encode options: %w", err)
	}
	stored, created, err := u.deps.Daily.CreateIfAbsent(dbc, &types.DailyChallenge{
		ID:            uuid.New(),
		ChallengeDate: date,
		Cohort:        cohort,
		Title:         gen.Title,
		Description:   gen.Description,
		XPReward:      u.deps.Policy.DailyQuizXP,
		Question:      gen.Question,
		Options:       options,
		CorrectOption: gen.CorrectOption,
		Explanation:   gen.Explanation,
		ArtStyle:      style,
	})
	if err != nil {
		return DailyChallengeView{}, fmt.Errorf("store daily challenge: %w", err)
	}
	u.cacheChallenge(ctx, stored)
	if created {
		u.deps.Log.Info("Daily challenge generated", "date", date, "cohort", cohort, "challenge_id", stored.ID)
		return u.challengeView(stored, ProvenanceGenerated), nil
	}
	return u.challengeView(stored, ProvenanceStored), nil
}

func (u Usecases) callGenerator(ctx context.Context, req services.ChallengeRequest) (*services.GeneratedChallenge, error) {
	if u.deps.Generator == nil {
		return nil, services.ErrGeneratorUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, u.deps.Policy.GenerateTimeout)
	defer cancel()
	start := time.Now()
	gen, err := u.deps.Generator.Generate(ctx, req)
	if err == nil && gen == nil {
		err = errors.New("generator returned no challenge")
	}
	if err == nil {
		err = gen.Validate()
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveUpstream("challenge_generator", "generate", status, time.Since(start))
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (u Usecases) cacheChallenge(ctx context.Context, row *types.DailyChallenge) {
	if u.deps.DailyCache == nil || row == nil {
		return
	}
	if err := u.deps.DailyCache.Set(ctx, row); err != nil {
		u.deps.Log.Warn("Daily challenge cache write failed", "challenge_id", row.ID, "error", err)
	}
}

// The fallback keeps its answer on the view: clients grade it locally and
// report the result.
func (u Usecases) fallbackChallenge(date, cohort, style string) DailyChallengeView {
	correct := 1
	return DailyChallengeView{
		ID:            uuid.Nil,
		ChallengeDate: date,
		Cohort:        cohort,
		Title:         "Dojo Basics",
		Description:   "A quick question about how we train together.",
		XPReward:      u.deps.Policy.FallbackQuizXP,
		Question:      "What do you do when you enter or leave the dojo?",
		Options:       []string{"Run straight to your spot", "Bow to show respect", "Shout your name", "Take off your belt"},
		ArtStyle:      style,
		Fallback:      true,
		Provenance:    ProvenanceFallback,
		CorrectOption: &correct,
	}
}

func (u Usecases) challengeView(row *types.DailyChallenge, provenance string) DailyChallengeView {
	var options []string
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &options); err != nil {
			u.deps.Log.Error("Daily challenge has undecodable options", "challenge_id", row.ID, "error", err)
			options = nil
		}
	}
	return DailyChallengeView{
		ID:            row.ID,
		ChallengeDate: row.ChallengeDate,
		Cohort:        row.Cohort,
		Title:         row.Title,
		Description:   row.Description,
		XPReward:      row.XPReward,
		Question:      row.Question,
		Options:       options,
		ArtStyle:      row.ArtStyle,
		Provenance:    provenance,
	}
}

type DailyAnswerInput struct {
	Actor Actor
	// ChallengeID is uuid.Nil for the fallback challenge. It is rejected once
	// a stored challenge exists for the student's belt today.
	ChallengeID     uuid.UUID
	SelectedOption  *int `validate:"omitempty,gte=0,lte=5"`
	ReportedCorrect bool
}

type DailyAnswerOutput struct {
	Correct       bool   `json:"correct"`
	CorrectOption *int   `json:"correct_option,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	XPAwarded     int64  `json:"xp_awarded"`
	Balance       int64  `json:"balance"`
}

// SubmitDailyChallengeAnswer takes one answer per student per day. A wrong
// answer still uses up the day.
func (u Usecases) SubmitDailyChallengeAnswer(ctx context.Context, in DailyAnswerInput) (DailyAnswerOutput, error) {
	const op = "submit_daily_challenge_answer"
	if err := u.check(op, in); err != nil {
		return DailyAnswerOutput{}, err
	}
	student, err := u.ensureStudent(ctx, op, in.Actor)
	if err != nil {
		return DailyAnswerOutput{}, err
	}

	var out DailyAnswerOutput
	err = u.writer.Execute(ctx, op, func(dbc dbctx.Context) error {
		d, err := u.limiter.CheckAndReserve(dbc, student.ID, "", DailyQuizOncePerDayPolicy{})
		if err != nil {
			return err
		}
		if !d.Allowed {
			return rateLimitedErr(op, d.Reason, student.TotalXP)
		}

		meta := types.QuizMetadata{Fallback: in.ChallengeID == uuid.Nil}
		key := "daily:fallback"
		reward := u.deps.Policy.FallbackQuizXP
		if in.ChallengeID == uuid.Nil {
			// Self-grading is only honored while no stored challenge exists
			// for the student's cohort today.
			served, err := u.deps.Daily.GetByKey(dbc, d.Day, student.Belt)
			if err != nil {
				return err
			}
			if served != nil {
				return validationErr(op, "daily_challenge_id_required", "today's challenge must be answered by id")
			}
			meta.Correct = in.ReportedCorrect
		} else {
			challenge, err := u.deps.Daily.GetByID(dbc, in.ChallengeID)
			if err != nil {
				return err
			}
			if challenge == nil {
				return notFoundErr(op, "daily_challenge_not_found")
			}
			if challenge.ChallengeDate != d.Day {
				return invalidStateErr(op, "daily_challenge_expired", "only today's challenge can be answered")
			}
			if in.SelectedOption == nil {
				return validationErr(op, "invalid_selected_option", "selected option required")
			}
			id := challenge.ID
			correctOption := challenge.CorrectOption
			meta.DailyChallengeID = &id
			meta.Correct = *in.SelectedOption == challenge.CorrectOption
			key = "daily:" + challenge.ChallengeDate + ":" + challenge.Cohort
			reward = challenge.XPReward
			out.CorrectOption = &correctOption
			out.Explanation = challenge.Explanation
		}

		xp := int64(0)
		if meta.Correct {
			xp = reward
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		row := &types.ChallengeSubmission{
			ID:           uuid.New(),
			StudentID:    student.ID,
			ChallengeKey: key,
			Mode:         gamedomain.ModeQuiz,
			Status:       gamedomain.StatusCompleted,
			ProofType:    gamedomain.ProofQuizAnswer,
			XPAmount:     xp,
			Day:          d.Day,
			Score:        in.SelectedOption,
			Metadata:     metaJSON,
		}
		if err := u.deps.Submissions.Create(dbc, row); err != nil {
			if errors.Is(err, repos.ErrDuplicate) {
				return rateLimitedErr(op, "daily_challenge_already_answered", student.TotalXP)
			}
			return err
		}

		out.Correct = meta.Correct
		out.XPAwarded = xp
		if xp <= 0 {
			out.Balance, err = u.ledger.Balance(dbc, student.ID)
			return err
		}
		out.Balance, err = u.ledger.Award(dbc, student.ID, xp, gamedomain.SourceDailyChallenge, map[string]any{
			"submission_id": row.ID,
			"challenge_key": key,
			"fallback":      meta.Fallback,
		})
		return err
	})
	if err != nil {
		return DailyAnswerOutput{}, writeResult(op, err)
	}
	observability.Current().IncSubmission(gamedomain.ModeQuiz, gamedomain.StatusCompleted)
	u.notifyXPAwarded(ctx, student.ID, out.XPAwarded, out.Balance, gamedomain.SourceDailyChallenge)
	return out, nil
}
