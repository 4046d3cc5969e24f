package storage

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FellingOperationType string

const (
	FellingNone            FellingOperationType = "None"
	ClearFelling           FellingOperationType = "ClearFelling"
	FellingOfCoppice       FellingOperationType = "FellingOfCoppice"
	FellingIndividualTrees FellingOperationType = "FellingIndividualTrees"
	RegenerationFelling    FellingOperationType = "RegenerationFelling"
	Thinning               FellingOperationType = "Thinning"
)

type RestockingProposalType string

const (
	RestockingNone                            RestockingProposalType = "None"
	CreateOpenSpace                           RestockingProposalType = "CreateOpenSpace"
	DoNotIntendToRestock                      RestockingProposalType = "DoNotIntendToRestock"
	PlantAnAlternativeArea                    RestockingProposalType = "PlantAnAlternativeArea"
	PlantAnAlternativeAreaWithIndividualTrees RestockingProposalType = "PlantAnAlternativeAreaWithIndividualTrees"
	NaturalColonisation                       RestockingProposalType = "NaturalColonisation"
	ReplantTheFelledArea                      RestockingProposalType = "ReplantTheFelledArea"
	RestockByNaturalRegeneration              RestockingProposalType = "RestockByNaturalRegeneration"
	RestockWithCoppiceRegrowth                RestockingProposalType = "RestockWithCoppiceRegrowth"
	RestockWithIndividualTrees                RestockingProposalType = "RestockWithIndividualTrees"
)

// IsIndividualTrees reports whether the proposal is measured in a tree count rather than a density.
func (t RestockingProposalType) IsIndividualTrees() bool {
	return t == RestockWithIndividualTrees || t == PlantAnAlternativeAreaWithIndividualTrees
}

type SpeciesAndPercentage struct {
	Code       string          `json:"species_code"`
	Name       string          `json:"species_name"`
	Percentage decimal.Decimal `json:"percentage"`
}

// RestockingOperationDetails is one proposed restocking action on one compartment.
type RestockingOperationDetails struct {
	FellingCompartmentID      uuid.UUID              `json:"felling_compartment_id"`
	FellingCompartmentName    string                 `json:"felling_compartment_name"`
	RestockingCompartmentID   uuid.UUID              `json:"restocking_compartment_id"`
	RestockingCompartmentName string                 `json:"restocking_compartment_name"`
	FellingOperationType      FellingOperationType   `json:"felling_operation_type"`
	RestockingProposalType    RestockingProposalType `json:"restocking_proposal_type"`

	PercentOpenSpace           decimal.Decimal  `json:"percent_open_space"`
	PercentNaturalRegeneration *decimal.Decimal `json:"percent_natural_regeneration,omitempty"`
	RestockingDensity          *decimal.Decimal `json:"restocking_density,omitempty"`
	NumberOfTrees              *int             `json:"number_of_trees,omitempty"`

	Species []SpeciesAndPercentage `json:"species"`
}
