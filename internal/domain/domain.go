// Package domain re-exports the persistence models so callers can import one
// package under the `types` alias.
package domain

import "github.com/yungbote/dojoquest-backend/internal/domain/gamification"

type (
	Club                = gamification.Club
	Student             = gamification.Student
	XPTransaction       = gamification.XPTransaction
	ChallengeSubmission = gamification.ChallengeSubmission
	DailyChallenge      = gamification.DailyChallenge
	HabitLog            = gamification.HabitLog
	FamilyLog           = gamification.FamilyLog

	Submission       = gamification.Submission
	SubmissionCommon = gamification.SubmissionCommon
	TrustSubmission  = gamification.TrustSubmission
	VideoSubmission  = gamification.VideoSubmission
	PvpMatch         = gamification.PvpMatch
	QuizCompletion   = gamification.QuizCompletion
	QuizMetadata     = gamification.QuizMetadata
	PvpRole          = gamification.PvpRole
)

// AllModels lists every table for AutoMigrate, parents first.
func AllModels() []any {
	return []any{
		&Club{},
		&Student{},
		&XPTransaction{},
		&ChallengeSubmission{},
		&DailyChallenge{},
		&HabitLog{},
		&FamilyLog{},
	}
}
