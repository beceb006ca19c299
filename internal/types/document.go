package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DocumentStatus string

const (
	DocumentStatusWinner    DocumentStatus = "winner"
	DocumentStatusGenerated DocumentStatus = "generated"
	DocumentStatusTesting   DocumentStatus = "testing"
	DocumentStatusArchived  DocumentStatus = "archived"
)

type DocumentFormat string

const (
	DocumentFormatInterview DocumentFormat = "interview"
	DocumentFormatNews      DocumentFormat = "news"
	DocumentFormatBlog      DocumentFormat = "blog"
	DocumentFormatReview    DocumentFormat = "review"
)

// SourceDocument is a reference corpus entry. Only documents with status
// "winner" are eligible as retrieval context for generation.
type SourceDocument struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string         `gorm:"size:255" json:"name"`
	Geo      string         `gorm:"size:2;not null;index" json:"geo"`
	Language string         `gorm:"size:5;not null" json:"language"`
	Vertical string         `gorm:"size:50;not null;index" json:"vertical"`
	Format   DocumentFormat `gorm:"size:20;not null" json:"format"`

	CTRToLanding *float64 `gorm:"column:ctr_to_landing" json:"ctr_to_landing"`
	LeadRate     *float64 `gorm:"column:lead_rate" json:"lead_rate"`
	DepositRate  *float64 `gorm:"column:deposit_rate" json:"deposit_rate"`

	Status DocumentStatus `gorm:"size:20;not null;default:testing;index" json:"status"`
	Tags   datatypes.JSON `gorm:"type:jsonb" json:"tags"`

	HTMLPath string `gorm:"column:html_path" json:"html_path"`

	Elements []Element `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"elements,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SourceDocument) TableName() string {
	return "source_document"
}
