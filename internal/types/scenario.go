package types

import (
	"time"

	"gorm.io/datatypes"
)

// Scenario is a reusable three-stage prompt template. Scenarios are
// soft-deactivated, never hard-deleted, so past GeneratedCopy rows keep a
// valid reference.
type Scenario struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"size:100;not null" json:"name"`
	LocalizedName string `gorm:"size:100;column:localized_name" json:"localized_name"`
	Description   string `json:"description,omitempty"`

	BeginningTemplate string `gorm:"column:beginning_template;not null" json:"beginning_template"`
	MiddleTemplate    string `gorm:"column:middle_template;not null" json:"middle_template"`
	EndTemplate       string `gorm:"column:end_template;not null" json:"end_template"`

	StructureGuidelines datatypes.JSON `gorm:"type:jsonb;column:structure_guidelines" json:"structure_guidelines"`
	Active              bool           `gorm:"not null;default:true" json:"active"`
	OrderIndex          int            `gorm:"column:order_index;default:0" json:"order_index"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Scenario) TableName() string {
	return "scenario"
}
