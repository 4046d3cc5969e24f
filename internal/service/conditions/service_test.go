package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/audit"
	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/storage"
)

type MockConditionsStorage struct {
	mock.Mock
}

func (m *MockConditionsStorage) BeginConditions(ctx context.Context) (storage.ConditionsUnitOfWork, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.ConditionsUnitOfWork), args.Error(1)
}

func (m *MockConditionsStorage) GetConditions(ctx context.Context, applicationID uuid.UUID) ([]storage.LicenceCondition, error) {
	args := m.Called(ctx, applicationID)
	switch v := args.Get(0).(type) {
	case nil:
		return nil, args.Error(1)
	case func(context.Context, uuid.UUID) []storage.LicenceCondition:
		return v(ctx, applicationID), args.Error(1)
	default:
		return args.Get(0).([]storage.LicenceCondition), args.Error(1)
	}
}

type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) ClearConditions(ctx context.Context, applicationID uuid.UUID) error {
	return m.Called(ctx, applicationID).Error(0)
}

func (m *MockUnitOfWork) SaveConditions(ctx context.Context, conditions []storage.LicenceCondition) error {
	return m.Called(ctx, conditions).Error(0)
}

func (m *MockUnitOfWork) SaveChanges(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event audit.Event) error {
	return m.Called(ctx, event).Error(0)
}

func eventNamed(name string) interface{} {
	return mock.MatchedBy(func(e audit.Event) bool { return e.Name == name })
}

func eventContext(t *testing.T, e audit.Event) calculationAudit {
	t.Helper()
	var details calculationAudit
	require.NoError(t, json.Unmarshal(e.Context, &details))
	return details
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(st ConditionsStorage, pub audit.Publisher, parallel bool) *ConditionsService {
	svc := NewConditionsService(discardLogger(), st, pub, parallel, DefaultBuilders(testOptions())...)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func mixedOperations() []storage.RestockingOperationDetails {
	coppice := newOperation(storage.RestockWithCoppiceRegrowth, "3c")
	natural := newOperation(storage.RestockByNaturalRegeneration, "2b")
	natural.PercentNaturalRegeneration = decPtr("40")
	replant := newOperation(storage.ReplantTheFelledArea, "1a")
	open := newOperation(storage.CreateOpenSpace, "4d")

	return []storage.RestockingOperationDetails{coppice, natural, replant, open}
}

func TestCalculateConditions_DraftDoesNotPersist(t *testing.T) {
	st := new(MockConditionsStorage)
	pub := new(MockPublisher)
	appID, userID := uuid.New(), uuid.New()

	var published audit.Event
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculated)).
		Run(func(args mock.Arguments) { published = args.Get(1).(audit.Event) }).
		Return(nil)

	svc := newTestService(st, pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    mixedOperations(),
		IsDraft:       true,
	}, userID)

	require.NoError(t, err)
	require.Len(t, resp.Conditions, 3)

	// builder registration order, not input order
	assert.Contains(t, resp.Conditions[0].ConditionText[0], "1200 stems per Ha")
	assert.Contains(t, resp.Conditions[1].ConditionText[0], "40.00% natural regeneration")
	assert.Contains(t, resp.Conditions[2].ConditionText[0], "coppice regrowth")

	assert.Equal(t, appID, published.ApplicationID)
	assert.Equal(t, userID, published.PerformingUserID)
	assert.Equal(t, calculationAudit{IsDraft: true, ConditionsCount: 3}, eventContext(t, published))

	st.AssertNotCalled(t, "BeginConditions", mock.Anything)
	pub.AssertExpectations(t)
}

func TestCalculateConditions_Idempotent(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(new(MockConditionsStorage), pub, false)
	req := CalculateRequest{ApplicationID: uuid.New(), Operations: mixedOperations(), IsDraft: true}

	first, err := svc.CalculateConditions(context.Background(), req, uuid.New())
	require.NoError(t, err)
	second, err := svc.CalculateConditions(context.Background(), req, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateConditions_ParallelMatchesSequential(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	req := CalculateRequest{ApplicationID: uuid.New(), Operations: mixedOperations(), IsDraft: true}

	sequential, err := newTestService(new(MockConditionsStorage), pub, false).CalculateConditions(context.Background(), req, uuid.New())
	require.NoError(t, err)
	parallel, err := newTestService(new(MockConditionsStorage), pub, true).CalculateConditions(context.Background(), req, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestCalculateConditions_SkipsBuildersWithoutOperations(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculated)).Return(nil)

	svc := newTestService(new(MockConditionsStorage), pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: uuid.New(),
		Operations:    []storage.RestockingOperationDetails{newOperation(storage.RestockWithCoppiceRegrowth, "1a")},
		IsDraft:       true,
	}, uuid.New())

	require.NoError(t, err)
	require.Len(t, resp.Conditions, 1)
	assert.Equal(t, []string{"Restock 1a by coppice regrowth."}, resp.Conditions[0].ConditionText)
}

func TestCalculateConditions_NoApplicableOperations(t *testing.T) {
	st := new(MockConditionsStorage)
	uow := new(MockUnitOfWork)
	pub := new(MockPublisher)
	appID := uuid.New()

	st.On("BeginConditions", mock.Anything).Return(uow, nil)
	uow.On("ClearConditions", mock.Anything, appID).Return(nil)
	uow.On("SaveChanges", mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculated)).Return(nil)

	svc := newTestService(st, pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    []storage.RestockingOperationDetails{newOperation(storage.DoNotIntendToRestock, "1a")},
	}, uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, resp.Conditions)
	assert.Empty(t, resp.Conditions)

	uow.AssertNotCalled(t, "SaveConditions", mock.Anything, mock.Anything)
	uow.AssertExpectations(t)
}

func TestCalculateConditions_PersistsNonDraft(t *testing.T) {
	st := new(MockConditionsStorage)
	uow := new(MockUnitOfWork)
	pub := new(MockPublisher)
	appID, userID := uuid.New(), uuid.New()

	var saved []storage.LicenceCondition
	st.On("BeginConditions", mock.Anything).Return(uow, nil)
	uow.On("ClearConditions", mock.Anything, appID).Return(nil)
	uow.On("SaveConditions", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]storage.LicenceCondition) }).
		Return(nil)
	uow.On("SaveChanges", mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculated)).Return(nil)

	svc := newTestService(st, pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    mixedOperations(),
	}, userID)

	require.NoError(t, err)
	require.Len(t, saved, len(resp.Conditions))
	for i, entity := range saved {
		assert.Equal(t, appID, entity.ApplicationID)
		assert.Equal(t, userID, entity.CreatedBy)
		assert.Equal(t, i, entity.SortOrder)
		assert.Equal(t, resp.Conditions[i].ConditionText, entity.ConditionText)
		assert.NotEqual(t, uuid.Nil, entity.ID)
	}

	uow.AssertNotCalled(t, "Rollback")
	uow.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestCalculateConditions_SaveFailure(t *testing.T) {
	st := new(MockConditionsStorage)
	uow := new(MockUnitOfWork)
	pub := new(MockPublisher)
	appID := uuid.New()
	dbErr := errors.New("deadlock found when trying to get lock")

	var failure audit.Event
	st.On("BeginConditions", mock.Anything).Return(uow, nil)
	uow.On("ClearConditions", mock.Anything, appID).Return(nil)
	uow.On("SaveConditions", mock.Anything, mock.Anything).Return(nil)
	uow.On("SaveChanges", mock.Anything).Return(dbErr)
	uow.On("Rollback").Return(nil)
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculationFailure)).
		Run(func(args mock.Arguments) { failure = args.Get(1).(audit.Event) }).
		Return(nil)

	svc := newTestService(st, pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    mixedOperations(),
	}, uuid.New())

	require.Error(t, err)
	assert.Empty(t, resp.Conditions)
	assert.ErrorIs(t, err, dbErr)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "save changes", persistErr.Op)

	details := eventContext(t, failure)
	assert.False(t, details.IsDraft)
	assert.Contains(t, details.Error, dbErr.Error())

	uow.AssertCalled(t, "Rollback")
	pub.AssertNotCalled(t, "Publish", mock.Anything, eventNamed(audit.ConditionsCalculated))
}

func TestCalculateConditions_ClearFailure(t *testing.T) {
	st := new(MockConditionsStorage)
	uow := new(MockUnitOfWork)
	pub := new(MockPublisher)
	appID := uuid.New()

	st.On("BeginConditions", mock.Anything).Return(uow, nil)
	uow.On("ClearConditions", mock.Anything, appID).Return(errors.New("connection reset"))
	uow.On("Rollback").Return(nil)
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculationFailure)).Return(nil)

	svc := newTestService(st, pub, false)
	_, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    mixedOperations(),
	}, uuid.New())

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "clear", persistErr.Op)
	uow.AssertNotCalled(t, "SaveConditions", mock.Anything, mock.Anything)
}

type failingBuilder struct {
	baseBuilder
}

func (failingBuilder) CalculateCondition([]storage.RestockingOperationDetails) ([]storage.CalculatedCondition, error) {
	panic("species percentage missing")
}

func TestCalculateConditions_BuilderFailureAbortsRun(t *testing.T) {
	st := new(MockConditionsStorage)
	pub := new(MockPublisher)

	var failure audit.Event
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsCalculationFailure)).
		Run(func(args mock.Arguments) { failure = args.Get(1).(audit.Event) }).
		Return(nil)

	opts := testOptions()
	broken := failingBuilder{newBaseBuilder(storage.ConditionCoppiceRegrowth, opts[storage.ConditionCoppiceRegrowth], false,
		storage.RestockWithCoppiceRegrowth)}

	for _, parallel := range []bool{false, true} {
		svc := NewConditionsService(discardLogger(), st, pub, parallel,
			NewRestockByPlantingBuilder(opts[storage.ConditionRestockByPlanting]),
			broken,
		)

		resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
			ApplicationID: uuid.New(),
			Operations:    mixedOperations(),
		}, uuid.New())

		var calcErr *CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.Equal(t, "species percentage missing", calcErr.Message)
		assert.Nil(t, resp.Conditions)
		assert.Contains(t, eventContext(t, failure).Error, "species percentage missing")
	}

	st.AssertNotCalled(t, "BeginConditions", mock.Anything)
}

func TestCalculateConditions_AuditFailureDoesNotFailCalculation(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("audit table locked"))

	svc := newTestService(new(MockConditionsStorage), pub, false)
	resp, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: uuid.New(),
		Operations:    mixedOperations(),
		IsDraft:       true,
	}, uuid.New())

	require.NoError(t, err)
	assert.Len(t, resp.Conditions, 3)
}

func TestStoreThenRetrieve_RoundTrip(t *testing.T) {
	st := new(MockConditionsStorage)
	uow := new(MockUnitOfWork)
	pub := new(MockPublisher)
	appID := uuid.New()

	var saved []storage.LicenceCondition
	st.On("BeginConditions", mock.Anything).Return(uow, nil)
	uow.On("ClearConditions", mock.Anything, appID).Return(nil)
	uow.On("SaveConditions", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]storage.LicenceCondition) }).
		Return(nil)
	uow.On("SaveChanges", mock.Anything).Return(nil)
	st.On("GetConditions", mock.Anything, appID).
		Return(func(context.Context, uuid.UUID) []storage.LicenceCondition { return saved }, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(st, pub, false)
	calculated, err := svc.CalculateConditions(context.Background(), CalculateRequest{
		ApplicationID: appID,
		Operations:    mixedOperations(),
		IsDraft:       true,
	}, uuid.New())
	require.NoError(t, err)

	value := "31 March 2027"
	calculated.Conditions[0].Parameters[0].Value = &value

	require.NoError(t, svc.StoreConditions(context.Background(), appID, calculated.Conditions, uuid.New()))

	retrieved, err := svc.RetrieveExistingConditions(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, calculated.Conditions, retrieved.Conditions)

	pub.AssertCalled(t, "Publish", mock.Anything, eventNamed(audit.ConditionsStored))
}

func TestStoreConditions_Failure(t *testing.T) {
	st := new(MockConditionsStorage)
	pub := new(MockPublisher)
	appID := uuid.New()

	st.On("BeginConditions", mock.Anything).Return(nil, errors.New("too many connections"))
	pub.On("Publish", mock.Anything, eventNamed(audit.ConditionsStoreFailure)).Return(nil)

	svc := newTestService(st, pub, false)
	err := svc.StoreConditions(context.Background(), appID, []storage.CalculatedCondition{{
		ConditionText:                    []string{"text"},
		AppliesToSubmittedCompartmentIDs: []uuid.UUID{uuid.New()},
	}}, uuid.New())

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "begin", persistErr.Op)
	pub.AssertExpectations(t)
}

func TestRetrieveExistingConditions_Failure(t *testing.T) {
	st := new(MockConditionsStorage)
	appID := uuid.New()
	st.On("GetConditions", mock.Anything, appID).Return(nil, errors.New("table missing"))

	svc := newTestService(st, new(MockPublisher), false)
	_, err := svc.RetrieveExistingConditions(context.Background(), appID)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "get", persistErr.Op)
}
