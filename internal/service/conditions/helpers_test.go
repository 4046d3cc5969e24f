package conditions

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int {
	return &n
}

func oakAndBeech() []storage.SpeciesAndPercentage {
	return []storage.SpeciesAndPercentage{
		{Code: "OK", Name: "Oak", Percentage: dec("60.00")},
		{Code: "BE", Name: "Beech", Percentage: dec("40.00")},
	}
}

func newOperation(proposal storage.RestockingProposalType, compartment string) storage.RestockingOperationDetails {
	return storage.RestockingOperationDetails{
		FellingCompartmentID:      uuid.New(),
		FellingCompartmentName:    "F" + compartment,
		RestockingCompartmentID:   uuid.New(),
		RestockingCompartmentName: compartment,
		FellingOperationType:      storage.ClearFelling,
		RestockingProposalType:    proposal,
		PercentOpenSpace:          dec("10.00"),
		RestockingDensity:         decPtr("1200.00"),
		Species:                   oakAndBeech(),
	}
}

func testOptions() map[storage.ConditionType]storage.ConditionOptions {
	return map[storage.ConditionType]storage.ConditionOptions{
		storage.ConditionRestockByPlanting: {
			Lines: []string{
				"Restock {RestockingCompartments} felled in {FellingCompartments} with {SpeciesList} at {RestockingDensity}.",
				"Complete by {RestockingDate}.",
			},
			Parameters: []storage.ConditionParameterConfig{
				{Index: 0, Description: "Completion date", DefaultValue: ""},
				{Index: 1, Description: "Compartments", DefaultValue: "{RestockingCompartments}"},
			},
		},
		storage.ConditionNaturalRegeneration: {
			Lines: []string{"Restock {RestockingCompartments} by {NaturalRegeneration} of {SpeciesList}."},
			Parameters: []storage.ConditionParameterConfig{
				{Index: 0, Description: "Regeneration", DefaultValue: "{NaturalRegeneration}"},
			},
		},
		storage.ConditionCoppiceRegrowth: {
			Lines: []string{"Restock {RestockingCompartments} by {NaturalRegeneration}."},
		},
	}
}
