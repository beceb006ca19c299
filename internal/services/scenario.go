package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

type CreateScenarioInput struct {
	Name              string `json:"name"`
	LocalizedName     string `json:"localized_name"`
	Description       string `json:"description"`
	BeginningTemplate string `json:"beginning_template"`
	MiddleTemplate    string `json:"middle_template"`
	EndTemplate       string `json:"end_template"`
	OrderIndex        int    `json:"order_index"`
}

// UpdateScenarioInput carries a partial update; nil fields are left untouched.
type UpdateScenarioInput struct {
	Name              *string `json:"name"`
	LocalizedName     *string `json:"localized_name"`
	Description       *string `json:"description"`
	BeginningTemplate *string `json:"beginning_template"`
	MiddleTemplate    *string `json:"middle_template"`
	EndTemplate       *string `json:"end_template"`
	OrderIndex        *int    `json:"order_index"`
	Active            *bool   `json:"active"`
}

type ScenarioService interface {
	ListActive(ctx context.Context) ([]*types.Scenario, error)
	Get(ctx context.Context, id uint) (*types.Scenario, error)
	Create(ctx context.Context, input CreateScenarioInput) (*types.Scenario, error)
	Update(ctx context.Context, id uint, input UpdateScenarioInput) (*types.Scenario, error)
	Deactivate(ctx context.Context, id uint) error
	SeedFromFile(ctx context.Context, path string) (int, error)
}

type scenarioService struct {
	log       *logger.Logger
	scenarios repos.ScenarioRepo
}

func NewScenarioService(log *logger.Logger, scenarios repos.ScenarioRepo) (ScenarioService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if scenarios == nil {
		return nil, fmt.Errorf("scenario repo required")
	}
	return &scenarioService{
		log:       log.With("service", "ScenarioService"),
		scenarios: scenarios,
	}, nil
}

func (s *scenarioService) ListActive(ctx context.Context) ([]*types.Scenario, error) {
	return s.scenarios.ListActive(ctx, nil)
}

func (s *scenarioService) Get(ctx context.Context, id uint) (*types.Scenario, error) {
	return s.scenarios.GetByID(ctx, nil, id)
}

func (s *scenarioService) Create(ctx context.Context, input CreateScenarioInput) (*types.Scenario, error) {
	if err := validateScenarioInput(input); err != nil {
		return nil, err
	}
	scenario := &types.Scenario{
		Name:              strings.TrimSpace(input.Name),
		LocalizedName:     strings.TrimSpace(input.LocalizedName),
		Description:       input.Description,
		BeginningTemplate: input.BeginningTemplate,
		MiddleTemplate:    input.MiddleTemplate,
		EndTemplate:       input.EndTemplate,
		OrderIndex:        input.OrderIndex,
		Active:            true,
	}
	created, err := s.scenarios.Create(ctx, nil, scenario)
	if err != nil {
		return nil, fmt.Errorf("create scenario: %w", err)
	}
	s.log.Info("scenario created", "scenario_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *scenarioService) Update(ctx context.Context, id uint, input UpdateScenarioInput) (*types.Scenario, error) {
	scenario, err := s.scenarios.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("scenario %d: %w", id, err)
	}
	if input.Name != nil {
		scenario.Name = strings.TrimSpace(*input.Name)
	}
	if input.LocalizedName != nil {
		scenario.LocalizedName = strings.TrimSpace(*input.LocalizedName)
	}
	if input.Description != nil {
		scenario.Description = *input.Description
	}
	if input.BeginningTemplate != nil {
		scenario.BeginningTemplate = *input.BeginningTemplate
	}
	if input.MiddleTemplate != nil {
		scenario.MiddleTemplate = *input.MiddleTemplate
	}
	if input.EndTemplate != nil {
		scenario.EndTemplate = *input.EndTemplate
	}
	if input.OrderIndex != nil {
		scenario.OrderIndex = *input.OrderIndex
	}
	if input.Active != nil {
		scenario.Active = *input.Active
	}
	if err := s.scenarios.Save(ctx, nil, scenario); err != nil {
		return nil, fmt.Errorf("save scenario %d: %w", id, err)
	}
	return scenario, nil
}

// Deactivate is the soft delete. Rows stay so generated copies keep their
// scenario reference.
func (s *scenarioService) Deactivate(ctx context.Context, id uint) error {
	scenario, err := s.scenarios.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("scenario %d: %w", id, err)
	}
	if !scenario.Active {
		return nil
	}
	scenario.Active = false
	if err := s.scenarios.Save(ctx, nil, scenario); err != nil {
		return fmt.Errorf("deactivate scenario %d: %w", id, err)
	}
	s.log.Info("scenario deactivated", "scenario_id", id)
	return nil
}

type scenarioSeed struct {
	Name              string `yaml:"name"`
	LocalizedName     string `yaml:"localized_name"`
	Description       string `yaml:"description"`
	BeginningTemplate string `yaml:"beginning_template"`
	MiddleTemplate    string `yaml:"middle_template"`
	EndTemplate       string `yaml:"end_template"`
	OrderIndex        int    `yaml:"order_index"`
}

type scenarioSeedFile struct {
	Scenarios []scenarioSeed `yaml:"scenarios"`
}

// SeedFromFile loads scenario templates from a YAML file. It only runs when
// the table is empty so operator edits are never clobbered on restart.
func (s *scenarioService) SeedFromFile(ctx context.Context, path string) (int, error) {
	count, err := s.scenarios.Count(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("count scenarios: %w", err)
	}
	if count > 0 {
		s.log.Debug("scenario table not empty, skipping seed", "existing", count)
		return 0, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read scenario seed file %q: %w", path, err)
	}
	var file scenarioSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse scenario seed file %q: %w", path, err)
	}

	seeded := 0
	for i, seed := range file.Scenarios {
		if strings.TrimSpace(seed.Name) == "" {
			return seeded, fmt.Errorf("seed entry %d: name is required", i)
		}
		if seed.BeginningTemplate == "" || seed.MiddleTemplate == "" || seed.EndTemplate == "" {
			return seeded, fmt.Errorf("seed entry %q: all three stage templates are required", seed.Name)
		}
		orderIndex := seed.OrderIndex
		if orderIndex == 0 {
			orderIndex = i + 1
		}
		if _, err := s.scenarios.Create(ctx, nil, &types.Scenario{
			Name:              seed.Name,
			LocalizedName:     seed.LocalizedName,
			Description:       seed.Description,
			BeginningTemplate: seed.BeginningTemplate,
			MiddleTemplate:    seed.MiddleTemplate,
			EndTemplate:       seed.EndTemplate,
			OrderIndex:        orderIndex,
			Active:            true,
		}); err != nil {
			return seeded, fmt.Errorf("seed scenario %q: %w", seed.Name, err)
		}
		seeded++
	}
	s.log.Info("scenarios seeded", "count", seeded, "path", path)
	return seeded, nil
}

func validateScenarioInput(input CreateScenarioInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if input.BeginningTemplate == "" {
		return fmt.Errorf("beginning_template is required")
	}
	if input.MiddleTemplate == "" {
		return fmt.Errorf("middle_template is required")
	}
	if input.EndTemplate == "" {
		return fmt.Errorf("end_template is required")
	}
	return nil
}
