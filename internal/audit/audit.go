package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ConditionsCalculated         = "ConditionsCalculated"
	ConditionsCalculationFailure = "ConditionsCalculationFailure"
	ConditionsStored             = "ConditionsStored"
	ConditionsStoreFailure       = "ConditionsStoreFailure"
)

// Event is one audit record about a licence application.
type Event struct {
	ID               uuid.UUID
	Name             string
	ApplicationID    uuid.UUID
	PerformingUserID uuid.UUID
	Context          json.RawMessage
	CreatedAt        time.Time
}

// Publisher records audit events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewEvent builds an event, encoding details as the event context.
func NewEvent(name string, applicationID, performingUserID uuid.UUID, details any) (Event, error) {
	const op = "audit.NewEvent"

	payload, err := json.Marshal(details)
	if err != nil {
		return Event{}, fmt.Errorf("%s: marshal context for %s: %w", op, name, err)
	}

	return Event{
		ID:               uuid.New(),
		Name:             name,
		ApplicationID:    applicationID,
		PerformingUserID: performingUserID,
		Context:          payload,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
