package types

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackRecord is append-only: rows are never mutated after creation.
type FeedbackRecord struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	GenID uuid.UUID `gorm:"type:uuid;not null;index;column:gen_id" json:"gen_id"`

	CTRToLanding *float64 `gorm:"column:ctr_to_landing" json:"ctr_to_landing"`
	LeadRate     *float64 `gorm:"column:lead_rate" json:"lead_rate"`
	DepositRate  *float64 `gorm:"column:deposit_rate" json:"deposit_rate"`
	BanRate      float64  `gorm:"column:ban_rate;default:0" json:"ban_rate"`

	Impressions *int `json:"impressions"`
	Clicks      *int `json:"clicks"`

	SubmittedAt time.Time `gorm:"not null;column:submitted_at" json:"submitted_at"`
}

func (FeedbackRecord) TableName() string {
	return "feedback_record"
}
