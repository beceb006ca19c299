package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/types"
)

type GeneratedCopyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy) (*types.GeneratedCopy, error)
	GetByGenID(ctx context.Context, tx *gorm.DB, genID uuid.UUID) (*types.GeneratedCopy, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.GeneratedCopy, error)
	Save(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy) error
}

type generatedCopyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedCopyRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedCopyRepo {
	return &generatedCopyRepo{db: db, log: baseLog.With("repo", "GeneratedCopyRepo")}
}

func (r *generatedCopyRepo) Create(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy) (*types.GeneratedCopy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if gen.GenID == uuid.Nil {
		gen.GenID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(gen).Error; err != nil {
		return nil, err
	}
	return gen, nil
}

func (r *generatedCopyRepo) GetByGenID(ctx context.Context, tx *gorm.DB, genID uuid.UUID) (*types.GeneratedCopy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var gen types.GeneratedCopy
	if err := transaction.WithContext(ctx).First(&gen, "gen_id = ?", genID).Error; err != nil {
		return nil, err
	}
	return &gen, nil
}

func (r *generatedCopyRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.GeneratedCopy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var results []*types.GeneratedCopy
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *generatedCopyRepo) Save(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(gen).Error
}
