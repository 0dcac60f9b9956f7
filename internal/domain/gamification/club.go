package gamification

import (
	"time"

	"github.com/google/uuid"
)

// Club is a martial-arts school. Rows are managed by operators; this service only reads them.
type Club struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null" json:"name"`

	// PremiumVideoProof unlocks coach-verified video submissions for every student of the club.
	PremiumVideoProof bool   `gorm:"column:premium_video_proof;not null;default:false" json:"premium_video_proof"`
	CoachEmail        string `gorm:"column:coach_email" json:"coach_email,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Club) TableName() string { return "club" }
