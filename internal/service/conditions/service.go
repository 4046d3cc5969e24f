package conditions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/audit"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/metrics"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type ConditionsStorage interface {
	BeginConditions(ctx context.Context) (storage.ConditionsUnitOfWork, error)
	GetConditions(ctx context.Context, applicationID uuid.UUID) ([]storage.LicenceCondition, error)
}

type CalculateRequest struct {
	ApplicationID uuid.UUID                            `json:"application_id"`
	Operations    []storage.RestockingOperationDetails `json:"operations"`
	IsDraft       bool                                 `json:"is_draft"`
}

type ConditionsService struct {
	log      *slog.Logger
	storage  ConditionsStorage
	audit    audit.Publisher
	builders []ConditionBuilder
	parallel bool
	now      func() time.Time
}

func NewConditionsService(log *slog.Logger, storage ConditionsStorage, publisher audit.Publisher, parallel bool, builders ...ConditionBuilder) *ConditionsService {
	return &ConditionsService{
		log:      log,
		storage:  storage,
		audit:    publisher,
		builders: builders,
		parallel: parallel,
		now:      time.Now,
	}
}

type calculationAudit struct {
	IsDraft         bool   `json:"is_draft"`
	ConditionsCount int    `json:"conditions_count"`
	Error           string `json:"error,omitempty"`
}

// CalculateConditions runs every builder over the request's operations and,
// unless the request is a draft, replaces the application's persisted set.
func (s *ConditionsService) CalculateConditions(ctx context.Context, req CalculateRequest, performingUserID uuid.UUID) (storage.ConditionsResponse, error) {
	const op = "service.conditions.CalculateConditions"

	start := time.Now()
	log := s.log.With(
		slog.String("op", op),
		slog.String("application_id", req.ApplicationID.String()),
	)
	log.Debug("calculating conditions",
		slog.Int("operations", len(req.Operations)),
		slog.Bool("is_draft", req.IsDraft),
	)

	fail := func(err error) (storage.ConditionsResponse, error) {
		s.publish(ctx, audit.ConditionsCalculationFailure, req.ApplicationID, performingUserID, calculationAudit{
			IsDraft: req.IsDraft,
			Error:   err.Error(),
		})
		metrics.ObserveCalculation(metrics.ResultError, req.IsDraft, time.Since(start))
		return storage.ConditionsResponse{}, err
	}

	calculated, err := s.runBuilders(log, req.Operations)
	if err != nil {
		log.Warn("condition calculation failed", slog.String("error", err.Error()))
		return fail(err)
	}

	if !req.IsDraft {
		if err := s.replace(ctx, req.ApplicationID, performingUserID, calculated); err != nil {
			log.Error("failed to store calculated conditions", slog.String("error", err.Error()))
			return fail(err)
		}
	}

	s.publish(ctx, audit.ConditionsCalculated, req.ApplicationID, performingUserID, calculationAudit{
		IsDraft:         req.IsDraft,
		ConditionsCount: len(calculated),
	})
	metrics.ObserveCalculation(metrics.ResultSuccess, req.IsDraft, time.Since(start))
	log.Info("conditions calculated", slog.Int("conditions", len(calculated)))

	return storage.ConditionsResponse{Conditions: calculated}, nil
}

// StoreConditions persists an already calculated set, replacing any existing one.
func (s *ConditionsService) StoreConditions(ctx context.Context, applicationID uuid.UUID, conditions []storage.CalculatedCondition, performingUserID uuid.UUID) error {
	const op = "service.conditions.StoreConditions"

	log := s.log.With(
		slog.String("op", op),
		slog.String("application_id", applicationID.String()),
	)

	if err := s.replace(ctx, applicationID, performingUserID, conditions); err != nil {
		log.Error("failed to store conditions", slog.String("error", err.Error()))
		s.publish(ctx, audit.ConditionsStoreFailure, applicationID, performingUserID, calculationAudit{
			ConditionsCount: len(conditions),
			Error:           err.Error(),
		})
		metrics.IncStore(metrics.ResultError)
		return err
	}

	s.publish(ctx, audit.ConditionsStored, applicationID, performingUserID, calculationAudit{
		ConditionsCount: len(conditions),
	})
	metrics.IncStore(metrics.ResultSuccess)
	log.Debug("conditions stored", slog.Int("conditions", len(conditions)))

	return nil
}

// RetrieveExistingConditions reads back the persisted set without recalculating.
func (s *ConditionsService) RetrieveExistingConditions(ctx context.Context, applicationID uuid.UUID) (storage.ConditionsResponse, error) {
	const op = "service.conditions.RetrieveExistingConditions"

	entities, err := s.storage.GetConditions(ctx, applicationID)
	if err != nil {
		s.log.Error("failed to read conditions",
			slog.String("op", op),
			slog.String("application_id", applicationID.String()),
			slog.String("error", err.Error()),
		)
		return storage.ConditionsResponse{}, &PersistenceError{Op: "get", Err: err}
	}

	result := make([]storage.CalculatedCondition, 0, len(entities))
	for _, e := range entities {
		result = append(result, storage.CalculatedCondition{
			ConditionText:                    e.ConditionText,
			Parameters:                       e.Parameters,
			AppliesToSubmittedCompartmentIDs: e.AppliesToSubmittedCompartmentIDs,
		})
	}

	return storage.ConditionsResponse{Conditions: result}, nil
}

func (s *ConditionsService) runBuilders(log *slog.Logger, ops []storage.RestockingOperationDetails) ([]storage.CalculatedCondition, error) {
	results := make([][]storage.CalculatedCondition, len(s.builders))
	errs := make([]error, len(s.builders))

	run := func(i int) {
		b := s.builders[i]

		applicable := make([]storage.RestockingOperationDetails, 0, len(ops))
		for _, op := range ops {
			if b.AppliesToOperation(op) {
				applicable = append(applicable, op)
			}
		}
		if len(applicable) == 0 {
			log.Debug("no applicable operations", slog.String("condition_type", string(b.ConditionType())))
			return
		}

		log.Debug("calculating condition",
			slog.String("condition_type", string(b.ConditionType())),
			slog.Int("operations", len(applicable)),
		)
		results[i], errs[i] = safely(b.ConditionType(), func() ([]storage.CalculatedCondition, error) {
			return b.CalculateCondition(applicable)
		})
	}

	if s.parallel {
		var g errgroup.Group
		for i := range s.builders {
			i := i
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range s.builders {
			run(i)
			if errs[i] != nil {
				break
			}
		}
	}

	var calculated []storage.CalculatedCondition
	for i, b := range s.builders {
		if errs[i] != nil {
			return nil, errs[i]
		}
		metrics.AddConditionsGenerated(string(b.ConditionType()), len(results[i]))
		calculated = append(calculated, results[i]...)
	}

	if calculated == nil {
		calculated = []storage.CalculatedCondition{}
	}
	return calculated, nil
}

// replace clears the application's conditions and writes the new set in one unit of work.
func (s *ConditionsService) replace(ctx context.Context, applicationID, performingUserID uuid.UUID, conditions []storage.CalculatedCondition) (err error) {
	uow, err := s.storage.BeginConditions(ctx)
	if err != nil {
		return &PersistenceError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err := uow.ClearConditions(ctx, applicationID); err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}

	if len(conditions) > 0 {
		if err := uow.SaveConditions(ctx, s.toEntities(applicationID, performingUserID, conditions)); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
	}

	if err := uow.SaveChanges(ctx); err != nil {
		return &PersistenceError{Op: "save changes", Err: err}
	}

	return nil
}

func (s *ConditionsService) toEntities(applicationID, performingUserID uuid.UUID, conditions []storage.CalculatedCondition) []storage.LicenceCondition {
	createdAt := s.now().UTC()

	entities := make([]storage.LicenceCondition, len(conditions))
	for i, c := range conditions {
		entities[i] = storage.LicenceCondition{
			ID:                               uuid.New(),
			ApplicationID:                    applicationID,
			SortOrder:                        i,
			ConditionText:                    c.ConditionText,
			Parameters:                       c.Parameters,
			AppliesToSubmittedCompartmentIDs: c.AppliesToSubmittedCompartmentIDs,
			CreatedBy:                        performingUserID,
			CreatedAt:                        createdAt,
		}
	}
	return entities
}

func (s *ConditionsService) publish(ctx context.Context, name string, applicationID, performingUserID uuid.UUID, details calculationAudit) {
	const op = "service.conditions.publish"

	event, err := audit.NewEvent(name, applicationID, performingUserID, details)
	if err == nil {
		err = s.audit.Publish(ctx, event)
	}
	if err != nil {
		s.log.Warn("failed to publish audit event",
			slog.String("op", op),
			slog.String("event", name),
			slog.String("application_id", applicationID.String()),
			slog.String("error", err.Error()),
		)
	}
}
