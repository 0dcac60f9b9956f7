package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DailyChallenge is generated at most once per (date, cohort) and never mutated.
type DailyChallenge struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChallengeDate string         `gorm:"column:challenge_date;not null;uniqueIndex:idx_daily_challenge_date_cohort,priority:1" json:"challenge_date"`
	Cohort        string         `gorm:"column:cohort;not null;uniqueIndex:idx_daily_challenge_date_cohort,priority:2" json:"cohort"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description;not null;default:''" json:"description"`
	XPReward      int64          `gorm:"column:xp_reward;not null" json:"xp_reward"`
	Question      string         `gorm:"column:question;not null" json:"question"`
	Options       datatypes.JSON `gorm:"column:options;type:jsonb;not null;default:'[]'" json:"options"`
	CorrectOption int            `gorm:"column:correct_option;not null" json:"-"`
	Explanation   string         `gorm:"column:explanation;not null;default:''" json:"explanation,omitempty"`
	ArtStyle      string         `gorm:"column:art_style;not null;default:''" json:"art_style"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (DailyChallenge) TableName() string { return "daily_challenge" }
