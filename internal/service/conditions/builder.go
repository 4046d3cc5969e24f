package conditions

import (
	"fmt"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

// ConditionBuilder turns the restocking operations it owns into calculated
// conditions of one condition type.
type ConditionBuilder interface {
	ConditionType() storage.ConditionType
	AppliesToOperation(op storage.RestockingOperationDetails) bool
	CalculateCondition(ops []storage.RestockingOperationDetails) ([]storage.CalculatedCondition, error)
}

type baseBuilder struct {
	conditionType       storage.ConditionType
	options             storage.ConditionOptions
	proposalTypes       map[storage.RestockingProposalType]bool
	matchOnNaturalRegen bool
}

func newBaseBuilder(
	conditionType storage.ConditionType,
	options storage.ConditionOptions,
	matchOnNaturalRegen bool,
	proposalTypes ...storage.RestockingProposalType,
) baseBuilder {
	set := make(map[storage.RestockingProposalType]bool, len(proposalTypes))
	for _, t := range proposalTypes {
		set[t] = true
	}

	return baseBuilder{
		conditionType:       conditionType,
		options:             options,
		proposalTypes:       set,
		matchOnNaturalRegen: matchOnNaturalRegen,
	}
}

func (b baseBuilder) ConditionType() storage.ConditionType {
	return b.conditionType
}

func (b baseBuilder) AppliesToOperation(op storage.RestockingOperationDetails) bool {
	return b.proposalTypes[op.RestockingProposalType]
}

// MustMatchOnNaturalRegenPercentage reports whether the regeneration
// percentage is part of the grouping key.
func (b baseBuilder) MustMatchOnNaturalRegenPercentage() bool {
	return b.matchOnNaturalRegen
}

func (b baseBuilder) CalculateCondition(ops []storage.RestockingOperationDetails) ([]storage.CalculatedCondition, error) {
	return safely(b.conditionType, func() ([]storage.CalculatedCondition, error) {
		applicable := make([]storage.RestockingOperationDetails, 0, len(ops))
		for _, op := range ops {
			if b.AppliesToOperation(op) {
				applicable = append(applicable, op)
			}
		}
		if len(applicable) == 0 {
			return nil, ErrInvalidInput
		}

		groups := Group(applicable, b.matchOnNaturalRegen)
		result := make([]storage.CalculatedCondition, 0, len(groups))
		for _, group := range groups {
			result = append(result, b.render(group))
		}
		return result, nil
	})
}

func (b baseBuilder) render(group MatchedRestockingOperations) storage.CalculatedCondition {
	params := make([]storage.ConditionParameter, 0, len(b.options.Parameters))
	for _, p := range b.options.Parameters {
		params = append(params, storage.ConditionParameter{
			Index:        p.Index,
			Description:  p.Description,
			DefaultValue: RenderParameter(group, p.DefaultValue),
		})
	}

	return storage.CalculatedCondition{
		ConditionText:                    RenderLines(group, b.options.Lines),
		Parameters:                       params,
		AppliesToSubmittedCompartmentIDs: group.RestockingCompartmentIDs(),
	}
}

// safely converts a panic inside calc into a CalculationError.
func safely(
	conditionType storage.ConditionType,
	calc func() ([]storage.CalculatedCondition, error),
) (result []storage.CalculatedCondition, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &CalculationError{ConditionType: conditionType, Message: fmt.Sprint(r)}
		}
	}()

	return calc()
}
