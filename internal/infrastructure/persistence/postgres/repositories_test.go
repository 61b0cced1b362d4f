package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/checkoutkit/paypal-orchestrator/internal/domain"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/persistence/postgres"
	"github.com/checkoutkit/paypal-orchestrator/internal/infrastructure/persistence/postgres/testhelpers"
)

type RepositoriesTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDatabase
	states *postgres.StateRepository
	plans  *postgres.PlanRepository
	ledger *postgres.LedgerRepository
}

func TestRepositoriesSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}
	suite.Run(t, new(RepositoriesTestSuite))
}

func (s *RepositoriesTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDatabase(s.T())
	s.states = postgres.NewStateRepository(s.testDB.Pool)
	s.plans = postgres.NewPlanRepository(s.testDB.Pool)
	s.ledger = postgres.NewLedgerRepository(s.testDB.Pool)
}

func (s *RepositoriesTestSuite) TearDownSuite() {
	s.testDB.Cleanup(s.T())
}

func (s *RepositoriesTestSuite) TearDownTest() {
	s.testDB.CleanTables(s.T())
}

func (s *RepositoriesTestSuite) TestStateRepository_FirstTouchCreatesEmptyRecord() {
	ctx := context.Background()
	t := s.T()

	state, err := s.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, state.Status())

	// Same row on the second read, not a second insert.
	again, err := s.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, state.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func (s *RepositoriesTestSuite) TestStateRepository_SaveRoundTrip() {
	ctx := context.Background()
	t := s.T()

	state, err := s.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)

	require.NoError(t, state.Create("PAY-1"))
	require.NoError(t, state.Execute("PAYER-1", domain.PayerData{
		Email:     "buyer@example.com",
		FirstName: "Ana",
		LastName:  "Lovelace",
	}, "O-1"))
	require.NoError(t, state.Capture("CAP-1"))
	require.NoError(t, state.AppendRefund("REF-1"))
	require.NoError(t, s.states.Save(ctx, state))

	loaded, err := s.states.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCaptured, loaded.Status())
	assert.Equal(t, "PAY-1", loaded.PaymentID)
	assert.Equal(t, "O-1", loaded.ProviderOrderID)
	assert.Equal(t, "CAP-1", loaded.CaptureID)
	assert.Equal(t, "buyer@example.com", loaded.Payer.Email)
	assert.Equal(t, []string{"REF-1"}, loaded.RefundIDs)
	assert.True(t, loaded.PaymentSuccessful)
}

func (s *RepositoriesTestSuite) TestStateRepository_FindPendingCaptures() {
	ctx := context.Background()
	t := s.T()

	stuck, err := s.states.FindByOrderRef(ctx, "order-stuck")
	require.NoError(t, err)
	require.NoError(t, stuck.Create("PAY-1"))
	require.NoError(t, stuck.Execute("PAYER-1", domain.PayerData{}, "O-1"))
	require.NoError(t, s.states.Save(ctx, stuck))

	captured, err := s.states.FindByOrderRef(ctx, "order-done")
	require.NoError(t, err)
	require.NoError(t, captured.Create("PAY-2"))
	require.NoError(t, captured.Execute("PAYER-2", domain.PayerData{}, "O-2"))
	require.NoError(t, captured.Capture("CAP-2"))
	require.NoError(t, s.states.Save(ctx, captured))

	pending, err := s.states.FindPendingCaptures(ctx, 0, 10)
	require.NoError(t, err)

	require.Len(t, pending, 1)
	assert.Equal(t, "order-stuck", pending[0].OrderRef)
}

func (s *RepositoriesTestSuite) TestPlanRepository_MissReturnsNil() {
	ctx := context.Background()
	t := s.T()

	plan, err := s.plans.FindByHash(ctx, "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func (s *RepositoriesTestSuite) TestPlanRepository_SaveAndUpdate() {
	ctx := context.Background()
	t := s.T()

	plan := &domain.BillingPlan{
		IdentificationHash: "hash-1",
		ProviderPlanID:     "P-1",
		Name:               "Widget Monthly",
		State:              "CREATED",
		CreatedAt:          time.Now(),
	}
	require.NoError(t, s.plans.Save(ctx, plan))

	plan.State = "ACTIVE"
	require.NoError(t, s.plans.Save(ctx, plan))

	loaded, err := s.plans.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "P-1", loaded.ProviderPlanID)
	assert.Equal(t, "ACTIVE", loaded.State)
}

func (s *RepositoriesTestSuite) TestLedgerRepository_RoundTrip() {
	ctx := context.Background()
	t := s.T()

	amount, err := domain.MoneyFromString("49.99", "EUR")
	require.NoError(t, err)

	txn := &domain.LedgerTransaction{
		ID:              uuid.NewString(),
		OrderRef:        "order-1",
		Kind:            domain.LedgerRefund,
		Status:          domain.LedgerPending,
		Amount:          amount,
		Reason:          "damaged item",
		ProviderOrderID: "O-1",
		CaptureID:       "CAP-1",
		CreatedAt:       time.Now(),
	}
	require.NoError(t, s.ledger.Create(ctx, txn))

	now := time.Now()
	txn.Status = domain.LedgerCompleted
	txn.RefundID = "REF-1"
	txn.CompletedAt = &now
	require.NoError(t, s.ledger.Update(ctx, txn))

	rows, err := s.ledger.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, domain.LedgerRefund, row.Kind)
	assert.Equal(t, domain.LedgerCompleted, row.Status)
	assert.Equal(t, "49.99", row.Amount.String())
	assert.Equal(t, "REF-1", row.RefundID)
	require.NotNil(t, row.CompletedAt)
}

func (s *RepositoriesTestSuite) TestLedgerRepository_UpdateMissingRow() {
	ctx := context.Background()
	t := s.T()

	amount, err := domain.MoneyFromString("1.00", "EUR")
	require.NoError(t, err)

	err = s.ledger.Update(ctx, &domain.LedgerTransaction{ID: uuid.NewString(), Amount: amount})
	assert.Error(t, err)
}
