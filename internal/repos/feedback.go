package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/types"
)

// FeedbackRecordRepo is append-only by contract: there is no update or delete.
type FeedbackRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.FeedbackRecord) (*types.FeedbackRecord, error)
	GetByGenID(ctx context.Context, tx *gorm.DB, genID uuid.UUID) ([]*types.FeedbackRecord, error)
}

type feedbackRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRecordRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRecordRepo {
	return &feedbackRecordRepo{db: db, log: baseLog.With("repo", "FeedbackRecordRepo")}
}

func (r *feedbackRecordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.FeedbackRecord) (*types.FeedbackRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *feedbackRecordRepo) GetByGenID(ctx context.Context, tx *gorm.DB, genID uuid.UUID) ([]*types.FeedbackRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FeedbackRecord
	if err := transaction.WithContext(ctx).
		Where("gen_id = ?", genID).
		Order("submitted_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
