package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/types"
)

type ElementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, elements []*types.Element) ([]*types.Element, error)
	GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Element, error)
	SetEmbeddingID(ctx context.Context, tx *gorm.DB, id uuid.UUID, embeddingID string) error
}

type elementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewElementRepo(db *gorm.DB, baseLog *logger.Logger) ElementRepo {
	return &elementRepo{db: db, log: baseLog.With("repo", "ElementRepo")}
}

func (r *elementRepo) Create(ctx context.Context, tx *gorm.DB, elements []*types.Element) ([]*types.Element, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(elements) == 0 {
		return []*types.Element{}, nil
	}
	for _, e := range elements {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}

	// Keep batches small because TextContent is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(elements, batchSize).Error; err != nil {
		return nil, err
	}
	return elements, nil
}

func (r *elementRepo) GetByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*types.Element, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Element
	if err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetEmbeddingID records the vector-store reference for an element. The
// embedding itself is immutable: re-embedding writes a brand new reference.
func (r *elementRepo) SetEmbeddingID(ctx context.Context, tx *gorm.DB, id uuid.UUID, embeddingID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Element{}).
		Where("id = ?", id).
		Update("embedding_id", embeddingID).Error
}
