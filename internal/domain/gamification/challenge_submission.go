package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChallengeSubmission is the storage row for every submission mode. Code outside
// the repo works with the decoded Submission variants instead.
type ChallengeSubmission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;index:idx_submission_student_day,priority:1" json:"student_id"`
	ChallengeKey string    `gorm:"column:challenge_key;not null" json:"challenge_key"`
	Mode         string    `gorm:"column:mode;not null;index" json:"mode"`
	Status       string    `gorm:"column:status;not null;index" json:"status"`
	ProofType    string    `gorm:"column:proof_type;not null" json:"proof_type"`
	XPAmount     int64     `gorm:"column:xp_amount;not null;default:0" json:"xp_amount"`
	// Day is the UTC calendar day (YYYY-MM-DD) the submission counts against.
	Day string `gorm:"column:day;not null;index:idx_submission_student_day,priority:2" json:"day"`

	Score *int `gorm:"column:score" json:"score,omitempty"`

	VideoURL string `gorm:"column:video_url" json:"video_url,omitempty"`
	VideoKey string `gorm:"column:video_key" json:"-"`

	OpponentID      *uuid.UUID `gorm:"type:uuid;column:opponent_id;index" json:"opponent_id,omitempty"`
	ChallengerScore *int       `gorm:"column:challenger_score" json:"challenger_score,omitempty"`
	OpponentScore   *int       `gorm:"column:opponent_score" json:"opponent_score,omitempty"`
	WinnerID        *uuid.UUID `gorm:"type:uuid;column:winner_id" json:"winner_id,omitempty"`

	VerifiedBy    *uuid.UUID `gorm:"type:uuid;column:verified_by" json:"verified_by,omitempty"`
	VerifierNotes string     `gorm:"column:verifier_notes" json:"verifier_notes,omitempty"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChallengeSubmission) TableName() string { return "challenge_submission" }
