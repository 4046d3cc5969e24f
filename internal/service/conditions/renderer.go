package conditions

import (
	"fmt"
	"strings"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

const (
	SpeciesListPlaceholder            = "{SpeciesList}"
	RestockingDensityPlaceholder      = "{RestockingDensity}"
	RestockingCompartmentsPlaceholder = "{RestockingCompartments}"
	FellingCompartmentsPlaceholder    = "{FellingCompartments}"
	NaturalRegenerationPlaceholder    = "{NaturalRegeneration}"
)

// finalSpeciesSeparator is placed between the last two species. Issued
// licences quote this text verbatim.
const finalSpeciesSeparator = ""

type substitution struct {
	token string
	value string
}

// substitutionsFor computes placeholder values from the group's first
// operation; all members share these attributes by construction of the key.
func substitutionsFor(group MatchedRestockingOperations) []substitution {
	first := group.Operations[0]

	return []substitution{
		{SpeciesListPlaceholder, speciesList(first.Species)},
		{RestockingDensityPlaceholder, densityOrTrees(first)},
		{RestockingCompartmentsPlaceholder, group.RestockingCompartmentNames()},
		{FellingCompartmentsPlaceholder, group.FellingCompartmentNames()},
		{NaturalRegenerationPlaceholder, regeneration(first)},
	}
}

// RenderLines substitutes the group's values into every template line.
func RenderLines(group MatchedRestockingOperations, lines []string) []string {
	subs := substitutionsFor(group)

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = apply(line, subs)
	}
	return result
}

// RenderParameter substitutes the group's values into a parameter default.
// Blank templates are returned unchanged.
func RenderParameter(group MatchedRestockingOperations, template string) string {
	if strings.TrimSpace(template) == "" {
		return template
	}
	return apply(template, substitutionsFor(group))
}

func apply(text string, subs []substitution) string {
	for _, s := range subs {
		text = strings.ReplaceAll(text, s.token, s.value)
	}
	return text
}

func speciesList(species []storage.SpeciesAndPercentage) string {
	sorted := sortedSpecies(species)
	if len(sorted) == 0 {
		return ""
	}

	items := make([]string, len(sorted))
	for i, s := range sorted {
		items[i] = fmt.Sprintf("%s%% %s", s.Percentage.StringFixed(2), s.Name)
	}

	last := len(items) - 1
	if last == 0 {
		return items[0]
	}
	return strings.Join(items[:last], ", ") + finalSpeciesSeparator + items[last]
}

func densityOrTrees(op storage.RestockingOperationDetails) string {
	if op.RestockingProposalType.IsIndividualTrees() {
		trees := 0
		if op.NumberOfTrees != nil {
			trees = *op.NumberOfTrees
		}
		return fmt.Sprintf("%d trees", trees)
	}
	return valueOrZero(op.RestockingDensity).String() + " stems per Ha"
}

func regeneration(op storage.RestockingOperationDetails) string {
	if op.RestockingProposalType == storage.RestockWithCoppiceRegrowth {
		return "coppice regrowth"
	}
	return valueOrZero(op.PercentNaturalRegeneration).StringFixed(2) + "% natural regeneration"
}
