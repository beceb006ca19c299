package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/types"
)

type ScenarioRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scenario *types.Scenario) (*types.Scenario, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Scenario, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Scenario, error)
	Save(ctx context.Context, tx *gorm.DB, scenario *types.Scenario) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type scenarioRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScenarioRepo(db *gorm.DB, baseLog *logger.Logger) ScenarioRepo {
	return &scenarioRepo{db: db, log: baseLog.With("repo", "ScenarioRepo")}
}

func (r *scenarioRepo) Create(ctx context.Context, tx *gorm.DB, scenario *types.Scenario) (*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(scenario).Error; err != nil {
		return nil, err
	}
	return scenario, nil
}

func (r *scenarioRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var scenario types.Scenario
	if err := transaction.WithContext(ctx).First(&scenario, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (r *scenarioRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Scenario, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Scenario
	if err := transaction.WithContext(ctx).
		Where("active = ?", true).
		Order("order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scenarioRepo) Save(ctx context.Context, tx *gorm.DB, scenario *types.Scenario) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(scenario).Error
}

func (r *scenarioRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).Model(&types.Scenario{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
