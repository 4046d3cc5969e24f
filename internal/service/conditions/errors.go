package conditions

import (
	"errors"
	"fmt"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

// ErrInvalidInput is returned when a builder is asked to calculate over
// operations none of which it applies to.
var ErrInvalidInput = errors.New("cannot calculate condition with invalid restocking operations")

// CalculationError wraps an unexpected fault raised while grouping or rendering.
type CalculationError struct {
	ConditionType storage.ConditionType
	Message       string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculating %s condition: %s", e.ConditionType, e.Message)
}

// PersistenceError reports a failed clear, save or read of persisted conditions.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("conditions persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
