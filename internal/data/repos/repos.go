package repos

import (
	"github.com/yungbote/dojoquest-backend/internal/data/repos/gamification"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type StudentRepo = gamification.StudentRepo
type ClubRepo = gamification.ClubRepo
type XPLedgerRepo = gamification.XPLedgerRepo
type ChallengeSubmissionRepo = gamification.ChallengeSubmissionRepo
type DailyChallengeRepo = gamification.DailyChallengeRepo
type HabitLogRepo = gamification.HabitLogRepo
type FamilyLogRepo = gamification.FamilyLogRepo

var (
	ErrStudentNotFound = gamification.ErrStudentNotFound
	ErrInsufficientXP  = gamification.ErrInsufficientXP
	ErrDuplicate       = gamification.ErrDuplicate
)

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return gamification.NewStudentRepo(db, baseLog)
}

func NewClubRepo(db *gorm.DB, baseLog *logger.Logger) ClubRepo {
	return gamification.NewClubRepo(db, baseLog)
}

func NewXPLedgerRepo(db *gorm.DB, baseLog *logger.Logger) XPLedgerRepo {
	return gamification.NewXPLedgerRepo(db, baseLog)
}

func NewChallengeSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeSubmissionRepo {
	return gamification.NewChallengeSubmissionRepo(db, baseLog)
}

func NewDailyChallengeRepo(db *gorm.DB, baseLog *logger.Logger) DailyChallengeRepo {
	return gamification.NewDailyChallengeRepo(db, baseLog)
}

func NewHabitLogRepo(db *gorm.DB, baseLog *logger.Logger) HabitLogRepo {
	return gamification.NewHabitLogRepo(db, baseLog)
}

func NewFamilyLogRepo(db *gorm.DB, baseLog *logger.Logger) FamilyLogRepo {
	return gamification.NewFamilyLogRepo(db, baseLog)
}
