package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GeneratedCopy tracks one AI-generated artifact through its lifecycle:
// generated -> compliance-checked -> stored -> feedback-received -> promoted.
// PromotedToSource transitions false->true at most once and is never reset.
type GeneratedCopy struct {
	GenID uuid.UUID `gorm:"type:uuid;primaryKey;column:gen_id" json:"gen_id"`

	TargetGeo       string `gorm:"size:2;not null" json:"target_geo"`
	TargetLanguage  string `gorm:"size:5;not null" json:"target_language"`
	TargetVertical  string `gorm:"size:50;not null" json:"target_vertical"`
	Offer           string `gorm:"size:200;not null" json:"offer"`
	Persona         string `gorm:"size:50;not null" json:"persona"`
	ComplianceLevel string `gorm:"size:50;not null" json:"compliance_level"`

	SourceDocumentIDs datatypes.JSON `gorm:"type:jsonb;column:source_document_ids" json:"source_document_ids"`

	ScenarioID *uint     `gorm:"column:scenario_id" json:"scenario_id,omitempty"`
	Scenario   *Scenario `gorm:"foreignKey:ScenarioID;references:ID" json:"scenario,omitempty"`

	// Three-part structure, set by scenario-based generation.
	BeginningText string `gorm:"column:beginning_text" json:"beginning_text,omitempty"`
	MiddleText    string `gorm:"column:middle_text" json:"middle_text,omitempty"`
	EndText       string `gorm:"column:end_text" json:"end_text,omitempty"`

	GeneratedText string `gorm:"column:generated_text;not null" json:"generated_text"`

	CompliancePassed bool           `gorm:"column:compliance_passed;not null;default:true" json:"compliance_passed"`
	ComplianceIssues datatypes.JSON `gorm:"type:jsonb;column:compliance_issues" json:"compliance_issues"`

	// Latest metrics snapshot, overwritten on each feedback submission.
	CTRToLanding *float64 `gorm:"column:ctr_to_landing" json:"ctr_to_landing"`
	LeadRate     *float64 `gorm:"column:lead_rate" json:"lead_rate"`
	DepositRate  *float64 `gorm:"column:deposit_rate" json:"deposit_rate"`
	BanRate      float64  `gorm:"column:ban_rate;default:0" json:"ban_rate"`

	PromotedToSource   bool       `gorm:"column:promoted_to_source;not null;default:false" json:"promoted_to_source"`
	PromotedDocumentID *uuid.UUID `gorm:"type:uuid;column:promoted_document_id" json:"promoted_document_id,omitempty"`

	TokensUsed int `gorm:"column:tokens_used;default:0" json:"tokens_used"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GeneratedCopy) TableName() string {
	return "generated_copy"
}
