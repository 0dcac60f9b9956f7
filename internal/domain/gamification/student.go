package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Student shares its id with the identity subject. TotalXP is the denormalized
// ledger balance and is only ever changed by the ledger's atomic increment.
type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClubID      *uuid.UUID `gorm:"type:uuid;column:club_id;index" json:"club_id,omitempty"`
	DisplayName string     `gorm:"column:display_name;not null;default:''" json:"display_name"`
	Belt        string     `gorm:"column:belt;not null;default:'white';index" json:"belt"`
	TotalXP     int64      `gorm:"column:total_xp;not null;default:0" json:"total_xp"`

	PremiumVideoProof bool   `gorm:"column:premium_video_proof;not null;default:false" json:"premium_video_proof"`
	ParentEmail       string `gorm:"column:parent_email" json:"-"`

	// Cosmetics holds unlocked avatar items and similar progression state.
	Cosmetics datatypes.JSON `gorm:"column:cosmetics;type:jsonb;not null;default:'{}'" json:"cosmetics"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Student) TableName() string { return "student" }
