package types

import (
	"time"

	"github.com/google/uuid"
)

type ElementType string

const (
	ElementTypeHeading    ElementType = "heading"
	ElementTypeSubheading ElementType = "subheading"
	ElementTypeParagraph  ElementType = "paragraph"
	ElementTypeDialogue   ElementType = "dialogue"
	ElementTypeQuote      ElementType = "quote"
	ElementTypeCTA        ElementType = "cta"
	ElementTypeImageDesc  ElementType = "image_desc"
)

// Element is a text fragment extracted from a source document. EmbeddingID
// points at the vector store record; once set it is never mutated in place,
// re-embedding writes a fresh id.
type Element struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *SourceDocument `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	ElementType ElementType `gorm:"size:20;not null" json:"element_type"`
	TextContent string      `gorm:"column:text_content;not null" json:"text_content"`

	// Dialogue elements only.
	Speaker   string `gorm:"size:100" json:"speaker,omitempty"`
	Sentiment string `gorm:"size:50" json:"sentiment,omitempty"`

	OrderIndex int `gorm:"column:order_index;not null" json:"order_index"`

	EmbeddingID string `gorm:"column:embedding_id;size:36" json:"embedding_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Element) TableName() string {
	return "element"
}
