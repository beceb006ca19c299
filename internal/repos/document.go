package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/types"
)

// RankMetric selects the performance column used to order winner documents.
type RankMetric string

const (
	RankMetricCTRToLanding RankMetric = "ctr_to_landing"
	RankMetricLeadRate     RankMetric = "lead_rate"
	RankMetricDepositRate  RankMetric = "deposit_rate"
)

// Column maps each metric to its column name. Unknown metrics fall back to
// lead_rate, matching the historic default.
func (m RankMetric) Column() string {
	switch m {
	case RankMetricCTRToLanding:
		return "ctr_to_landing"
	case RankMetricDepositRate:
		return "deposit_rate"
	default:
		return "lead_rate"
	}
}

type TopWinnersQuery struct {
	Geo      string
	Vertical string
	Format   types.DocumentFormat // optional
	Metric   RankMetric
	Limit    int
}

type SourceDocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.SourceDocument) (*types.SourceDocument, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SourceDocument, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.SourceDocument, error)
	TopWinners(ctx context.Context, tx *gorm.DB, q TopWinnersQuery) ([]*types.SourceDocument, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DocumentStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type sourceDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceDocumentRepo(db *gorm.DB, baseLog *logger.Logger) SourceDocumentRepo {
	return &sourceDocumentRepo{db: db, log: baseLog.With("repo", "SourceDocumentRepo")}
}

func (r *sourceDocumentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.SourceDocument) (*types.SourceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *sourceDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SourceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.SourceDocument
	if err := transaction.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *sourceDocumentRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.SourceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var docs []*types.SourceDocument
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// TopWinners filters to winner status, geo and vertical (format optional),
// requires the ranking metric to be present, and orders by it descending.
// There is deliberately no secondary sort key: rows with equal metric values
// come back in store order and callers must not depend on tie order.
func (r *sourceDocumentRepo) TopWinners(ctx context.Context, tx *gorm.DB, q TopWinnersQuery) ([]*types.SourceDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	col := q.Metric.Column()

	query := transaction.WithContext(ctx).
		Where("status = ?", types.DocumentStatusWinner)
	if q.Geo != "" {
		query = query.Where("geo = ?", q.Geo)
	}
	if q.Vertical != "" {
		query = query.Where("vertical = ?", q.Vertical)
	}
	if q.Format != "" {
		query = query.Where("format = ?", q.Format)
	}

	var docs []*types.SourceDocument
	if err := query.
		Where(col + " IS NOT NULL").
		Order(col + " DESC").
		Limit(q.Limit).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *sourceDocumentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DocumentStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.SourceDocument{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *sourceDocumentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Delete(&types.SourceDocument{}, "id = ?", id).Error
}
