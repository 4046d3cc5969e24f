package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ConditionType string

const (
	ConditionRestockByPlanting   ConditionType = "restock-by-planting"
	ConditionNaturalRegeneration ConditionType = "natural-regeneration"
	ConditionCoppiceRegrowth     ConditionType = "coppice-regrowth"
)

// ConditionOptions is the static template configuration of one condition type.
type ConditionOptions struct {
	Lines      []string                   `yaml:"lines" json:"lines"`
	Parameters []ConditionParameterConfig `yaml:"parameters" json:"parameters"`
}

type ConditionParameterConfig struct {
	Index        int    `yaml:"index" json:"index"`
	Description  string `yaml:"description" json:"description"`
	DefaultValue string `yaml:"default_value" json:"default_value"`
}

type ConditionParameter struct {
	Index        int     `json:"index"`
	Description  string  `json:"description"`
	DefaultValue string  `json:"default_value"`
	Value        *string `json:"value,omitempty"`
}

type CalculatedCondition struct {
	ConditionText                    []string             `json:"condition_text"`
	Parameters                       []ConditionParameter `json:"parameters"`
	AppliesToSubmittedCompartmentIDs []uuid.UUID          `json:"applies_to_submitted_compartment_ids"`
}

type ConditionsResponse struct {
	Conditions []CalculatedCondition `json:"conditions"`
}

// LicenceCondition is the persisted form of a CalculatedCondition.
type LicenceCondition struct {
	ID                               uuid.UUID
	ApplicationID                    uuid.UUID
	SortOrder                        int
	ConditionText                    []string
	Parameters                       []ConditionParameter
	AppliesToSubmittedCompartmentIDs []uuid.UUID
	CreatedBy                        uuid.UUID
	CreatedAt                        time.Time
}

// ConditionsUnitOfWork groups clear and save of one application's conditions;
// nothing is visible to readers until SaveChanges succeeds.
type ConditionsUnitOfWork interface {
	ClearConditions(ctx context.Context, applicationID uuid.UUID) error
	SaveConditions(ctx context.Context, conditions []LicenceCondition) error
	SaveChanges(ctx context.Context) error
	Rollback() error
}
