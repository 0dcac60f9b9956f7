package gamification

import (
	"time"

	"github.com/google/uuid"
)

// HabitLog is one habit check-in. The unique (student, habit, day) index is the
// storage-level backstop against double check-ins.
type HabitLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_habit_log_student_habit_day,priority:1" json:"student_id"`
	HabitKey  string    `gorm:"column:habit_key;not null;uniqueIndex:idx_habit_log_student_habit_day,priority:2" json:"habit_key"`
	Day       string    `gorm:"column:day;not null;uniqueIndex:idx_habit_log_student_habit_day,priority:3" json:"day"`
	XPAwarded int64     `gorm:"column:xp_awarded;not null;default:0" json:"xp_awarded"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (HabitLog) TableName() string { return "habit_log" }

type FamilyLog struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_family_log_student_challenge_day,priority:1" json:"student_id"`
	ChallengeKey string    `gorm:"column:challenge_key;not null;uniqueIndex:idx_family_log_student_challenge_day,priority:2" json:"challenge_key"`
	Day          string    `gorm:"column:day;not null;uniqueIndex:idx_family_log_student_challenge_day,priority:3" json:"day"`
	Outcome      string    `gorm:"column:outcome;not null" json:"outcome"`
	XPAwarded    int64     `gorm:"column:xp_awarded;not null;default:0" json:"xp_awarded"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (FamilyLog) TableName() string { return "family_log" }
