package conditions

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

const (
	percentageDigits = 3
	densityDigits    = 4
)

// MatchedRestockingOperations is a non-empty set of operations sharing one equivalence key.
type MatchedRestockingOperations struct {
	Operations []storage.RestockingOperationDetails
}

// RestockingCompartmentNames returns the distinct restocking compartment names in encounter order.
func (m MatchedRestockingOperations) RestockingCompartmentNames() string {
	return distinctJoined(m.Operations, func(op storage.RestockingOperationDetails) string {
		return op.RestockingCompartmentName
	})
}

// FellingCompartmentNames returns the distinct felling compartment names in encounter order.
func (m MatchedRestockingOperations) FellingCompartmentNames() string {
	return distinctJoined(m.Operations, func(op storage.RestockingOperationDetails) string {
		return op.FellingCompartmentName
	})
}

// RestockingCompartmentIDs is the union of the operations' restocking compartment ids.
func (m MatchedRestockingOperations) RestockingCompartmentIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(m.Operations))
	ids := make([]uuid.UUID, 0, len(m.Operations))
	for _, op := range m.Operations {
		if seen[op.RestockingCompartmentID] {
			continue
		}
		seen[op.RestockingCompartmentID] = true
		ids = append(ids, op.RestockingCompartmentID)
	}
	return ids
}

func distinctJoined(ops []storage.RestockingOperationDetails, name func(storage.RestockingOperationDetails) string) string {
	seen := make(map[string]bool, len(ops))
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		n := name(op)
		if seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return strings.Join(names, ", ")
}

// equivalenceKey identifies operations that produce the same condition text.
// Numeric parts are fixed-width strings so that 10, 10.0 and 10.00 compare equal.
type equivalenceKey struct {
	felling      storage.FellingOperationType
	openSpace    string
	species      string
	density      string
	naturalRegen string
}

func (k equivalenceKey) String() string {
	return string(k.felling) + k.openSpace + k.species + k.density + k.naturalRegen
}

func keyFor(op storage.RestockingOperationDetails, includeNaturalRegen bool) equivalenceKey {
	species := sortedSpecies(op.Species)
	pairs := make([]string, 0, len(species))
	for _, s := range species {
		pairs = append(pairs, s.Code+":"+formatFixed(s.Percentage, percentageDigits))
	}

	key := equivalenceKey{
		felling:   op.FellingOperationType,
		openSpace: formatFixed(op.PercentOpenSpace, percentageDigits),
		species:   strings.Join(pairs, ","),
		density:   formatFixed(valueOrZero(op.RestockingDensity), densityDigits),
	}
	if includeNaturalRegen {
		key.naturalRegen = formatFixed(valueOrZero(op.PercentNaturalRegeneration), percentageDigits)
	}
	return key
}

// Group partitions operations into clusters with identical keys. Group order
// follows the first occurrence of each key; members keep their input order.
func Group(ops []storage.RestockingOperationDetails, includeNaturalRegen bool) []MatchedRestockingOperations {
	index := make(map[equivalenceKey]int)
	var groups []MatchedRestockingOperations

	for _, op := range ops {
		key := keyFor(op, includeNaturalRegen)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MatchedRestockingOperations{})
		}
		groups[i].Operations = append(groups[i].Operations, op)
	}

	return groups
}

// formatFixed renders d with two decimals, zero-padded to intDigits integer digits.
func formatFixed(d decimal.Decimal, intDigits int) string {
	s := d.Abs().StringFixed(2)
	if width := intDigits + 3; len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	if d.IsNegative() {
		s = "-" + s
	}
	return s
}

func sortedSpecies(species []storage.SpeciesAndPercentage) []storage.SpeciesAndPercentage {
	sorted := make([]storage.SpeciesAndPercentage, len(species))
	copy(sorted, species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Code < sorted[j].Code
	})
	return sorted
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
