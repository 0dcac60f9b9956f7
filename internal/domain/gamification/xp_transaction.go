package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// XPTransaction is one append-only ledger entry. Amount is signed: EARN rows are
// positive, SPEND rows negative, so SUM(amount) equals the student's balance.
type XPTransaction struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID      `gorm:"type:uuid;not null;index:idx_xp_transaction_student_created,priority:1" json:"student_id"`
	Amount    int64          `gorm:"column:amount;not null" json:"amount"`
	Direction string         `gorm:"column:direction;not null;index" json:"direction"`
	Source    string         `gorm:"column:source;not null;index" json:"source"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null;default:now();index:idx_xp_transaction_student_created,priority:2" json:"created_at"`
}

func (XPTransaction) TableName() string { return "xp_transaction" }
