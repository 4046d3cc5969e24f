package conditions

import (
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type RestockByPlantingBuilder struct {
	baseBuilder
}

func NewRestockByPlantingBuilder(options storage.ConditionOptions) *RestockByPlantingBuilder {
	return &RestockByPlantingBuilder{
		baseBuilder: newBaseBuilder(storage.ConditionRestockByPlanting, options, false,
			storage.ReplantTheFelledArea,
			storage.RestockWithIndividualTrees,
			storage.PlantAnAlternativeArea,
			storage.PlantAnAlternativeAreaWithIndividualTrees,
		),
	}
}

type NaturalRegenerationBuilder struct {
	baseBuilder
}

// NewNaturalRegenerationBuilder groups on the regeneration percentage as well,
// since that figure is quoted in the condition.
func NewNaturalRegenerationBuilder(options storage.ConditionOptions) *NaturalRegenerationBuilder {
	return &NaturalRegenerationBuilder{
		baseBuilder: newBaseBuilder(storage.ConditionNaturalRegeneration, options, true,
			storage.RestockByNaturalRegeneration,
		),
	}
}

type CoppiceRegrowthBuilder struct {
	baseBuilder
}

func NewCoppiceRegrowthBuilder(options storage.ConditionOptions) *CoppiceRegrowthBuilder {
	return &CoppiceRegrowthBuilder{
		baseBuilder: newBaseBuilder(storage.ConditionCoppiceRegrowth, options, false,
			storage.RestockWithCoppiceRegrowth,
		),
	}
}

// DefaultBuilders returns the registered builders in output order.
func DefaultBuilders(options map[storage.ConditionType]storage.ConditionOptions) []ConditionBuilder {
	return []ConditionBuilder{
		NewRestockByPlantingBuilder(options[storage.ConditionRestockByPlanting]),
		NewNaturalRegenerationBuilder(options[storage.ConditionNaturalRegeneration]),
		NewCoppiceRegrowthBuilder(options[storage.ConditionCoppiceRegrowth]),
	}
}
