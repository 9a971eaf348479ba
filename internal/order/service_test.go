package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"
	"procurement-be/internal/catalog"
	"procurement-be/internal/db"
	"procurement-be/internal/journal"
	"procurement-be/internal/metrics"
	"procurement-be/internal/notify"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(tx db.DBTX) Repository { return m }

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	return m.Called(ctx, orderID, lines).Error(0)
}

func (m *MockRepository) List(ctx context.Context, q ListQuery) ([]*Order, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) Stats(ctx context.Context, q StatsQuery) (*Stats, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) WithTx(tx db.DBTX) catalog.Repository { return m }

func (m *MockProducts) Create(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProducts) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProducts) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*catalog.Product), args.Error(1)
}

func (m *MockProducts) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProducts) List(ctx context.Context) ([]*catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProducts) SetPrice(ctx context.Context, id uuid.UUID, p decimal.Decimal) error {
	return m.Called(ctx, id, p).Error(0)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) WithTx(tx db.DBTX) journal.Repository { return m }

func (m *MockJournal) Append(ctx context.Context, e *journal.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockJournal) Query(ctx context.Context, f journal.Filter) ([]*journal.Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

// fakeTx runs fn without a database; the mocks ignore the tx handle.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.calls++
	return fn(nil)
}

// allowOnly grants exactly the listed actions to any actor.
type allowOnly map[access.Action]bool

func (a allowOnly) CanPerform(_ access.Actor, action access.Action, _ access.Resource) bool {
	return a[action]
}

type recorder struct {
	events []notify.Event
}

func (r *recorder) Dispatch(_ context.Context, events ...notify.Event) {
	r.events = append(r.events, events...)
}

type fixture struct {
	repo     *MockRepository
	products *MockProducts
	journal  *MockJournal
	events   *recorder
	metrics  *metrics.Registry
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		products: new(MockProducts),
		journal:  new(MockJournal),
		events:   &recorder{},
		metrics:  metrics.NewRegistry(),
	}
	f.svc = NewService(&fakeTx{}, f.repo, f.products, f.journal, access.NewRoleTable(), f.events, f.metrics)
	return f
}

var (
	warehouse  = access.Actor{ID: uuid.New(), Role: access.RoleWarehouse}
	accountant = access.Actor{ID: uuid.New(), Role: access.RoleAccounting}
	manager    = access.Actor{ID: uuid.New(), Role: access.RoleManagement}
)

func existingOrder(status Status, lines ...Line) *Order {
	return &Order{
		ID:          uuid.New(),
		OwnerID:     warehouse.ID,
		Status:      status,
		Lines:       lines,
		TotalAmount: Total(lines),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func entryMatching(prev, next Status) any {
	return mock.MatchedBy(func(e *journal.Entry) bool {
		return e.PreviousState == string(prev) && e.NewState == string(next)
	})
}

// --- Tests ---

func TestService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("PricedProduct", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).Return(map[uuid.UUID]*catalog.Product{
			productID: {ID: productID, Name: "Paper", UnitPrice: price("20")},
		}, nil)
		f.repo.On("Create", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
		f.journal.On("Append", ctx, mock.MatchedBy(func(e *journal.Entry) bool {
			return e.PreviousState == journal.StateNone && e.NewState == "Submitted" && e.ActorID == warehouse.ID
		})).Return(nil)

		res, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: 2}})
		require.NoError(t, err)
		assert.Equal(t, StatusSubmitted, res.Order.Status)
		assert.Equal(t, warehouse.ID, res.Order.OwnerID)
		assert.Equal(t, "40", res.Order.TotalAmount.String())
		assert.Equal(t, res.Order.ID, *res.Entry.OrderID)
		assert.Equal(t, uint64(1), f.metrics.Counter(metrics.OrdersCreated).Load())
		f.repo.AssertExpectations(t)
		f.journal.AssertExpectations(t)
	})

	t.Run("InlineProductIsCreated", func(t *testing.T) {
		f := newFixture()
		unitPrice := decimal.NewFromInt(3)

		var created *catalog.Product
		f.products.On("FindByName", ctx, "Stapler").Return(nil, catalog.ErrProductNotFound)
		f.products.On("Create", ctx, mock.AnythingOfType("*catalog.Product")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*catalog.Product) }).
			Return(nil)
		lookup := f.products.On("GetByIDs", ctx, mock.Anything)
		lookup.Run(func(args mock.Arguments) {
			ids := args.Get(1).([]uuid.UUID)
			lookup.ReturnArguments = mock.Arguments{map[uuid.UUID]*catalog.Product{ids[0]: created}, nil}
		})
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.journal.On("Append", ctx, mock.Anything).Return(nil)

		res, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{Name: "Stapler", Quantity: 4, UnitPrice: &unitPrice}})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, catalog.DefaultCriticalThreshold, created.CriticalThreshold)
		assert.Equal(t, created.ID, res.Order.Lines[0].ProductID)
		assert.Equal(t, "12", res.Order.TotalAmount.String())
	})

	t.Run("UnpricedProductTotalsZero", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).Return(map[uuid.UUID]*catalog.Product{
			productID: {ID: productID, Name: "Toner"},
		}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.journal.On("Append", ctx, mock.Anything).Return(nil)

		res, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: 5}})
		require.NoError(t, err)
		assert.True(t, res.Order.TotalAmount.IsZero())
		assert.False(t, res.Order.Lines[0].UnitPrice.Valid)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).Return(map[uuid.UUID]*catalog.Product{}, nil)

		_, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: 1}})
		assert.True(t, apperror.IsKind(err, apperror.KindUnknownProduct))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.journal.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		_, err := f.svc.CreateOrder(ctx, warehouse, nil)
		assert.ErrorIs(t, err, ErrNoLines)

		_, err = f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: 0}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = f.svc.CreateOrder(ctx, warehouse, []LineInput{{Name: "  ", Quantity: 1}})
		assert.ErrorIs(t, err, ErrLineProduct)
	})

	t.Run("Forbidden", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		_, err := f.svc.CreateOrder(ctx, accountant, []LineInput{{ProductID: &productID, Quantity: 1}})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("JournalFailureFailsCreate", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()

		f.products.On("GetByIDs", ctx, mock.Anything).Return(map[uuid.UUID]*catalog.Product{
			productID: {ID: productID},
		}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.journal.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: 1}})
		assert.Error(t, err)
		assert.Equal(t, uint64(0), f.metrics.Counter(metrics.OrdersCreated).Load())
	})
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("ValidateSettlesMissingPrices", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted, Line{ProductID: productID, Quantity: 3})

		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).Return(map[uuid.UUID]*catalog.Product{
			productID: {ID: productID, UnitPrice: price("2.50")},
		}, nil)
		f.repo.On("ReplaceLines", ctx, o.ID, mock.Anything).Return(nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusSubmitted, StatusValidated)).Return(nil)

		res, err := f.svc.Transition(ctx, accountant, o.ID, ActionValidate, "approved")
		require.NoError(t, err)
		assert.Equal(t, StatusValidated, res.Order.Status)
		assert.Equal(t, "approved", res.Order.Comment)
		assert.Equal(t, "7.5", res.Order.TotalAmount.String())
		assert.Equal(t, "approved", res.Entry.Comment)
		assert.Empty(t, f.events.events)
		f.repo.AssertExpectations(t)
	})

	t.Run("ValidateTwiceIsRefused", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusValidated, Line{ProductID: productID, Quantity: 1, UnitPrice: price("1")})
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)

		_, err := f.svc.Transition(ctx, accountant, o.ID, ActionValidate, "")
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidTransition))
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.journal.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		assert.Equal(t, uint64(1), f.metrics.Counter(metrics.TransitionsRejected).Load())
	})

	t.Run("WarehouseCannotValidate", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)

		_, err := f.svc.Transition(ctx, warehouse, o.ID, ActionValidate, "")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, StatusSubmitted, o.Status)
	})

	t.Run("RejectStoresComment", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusSubmitted, StatusRejected)).Return(nil)

		res, err := f.svc.Transition(ctx, accountant, o.ID, ActionReject, "over budget")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, res.Order.Status)
		assert.Equal(t, "over budget", res.Order.Comment)
	})

	t.Run("EmptyCommentKeepsRejectionReason", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Transition(ctx, accountant, o.ID, ActionReject, "missing delivery address")
		require.NoError(t, err)

		res, err := f.svc.Transition(ctx, accountant, o.ID, ActionRevise, "")
		require.NoError(t, err)
		assert.Equal(t, StatusUnderRevision, res.Order.Status)
		assert.Equal(t, "missing delivery address", res.Order.Comment)
		assert.Empty(t, res.Entry.Comment)
	})

	t.Run("EmptyCancellationKeepsComment", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusRejected)
		o.Comment = "over budget"
		o.CancellationComment = "duplicate of another order"
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusRejected, StatusCancelled)).Return(nil)

		res, err := f.svc.Transition(ctx, warehouse, o.ID, ActionCancel, "")
		require.NoError(t, err)
		assert.Equal(t, "over budget", res.Order.Comment)
		assert.Equal(t, "duplicate of another order", res.Order.CancellationComment)
	})

	t.Run("OwnerCancelsRejected", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusRejected)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusRejected, StatusCancelled)).Return(nil)

		res, err := f.svc.Transition(ctx, warehouse, o.ID, ActionCancel, "no longer needed")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, res.Order.Status)
		assert.Equal(t, "no longer needed", res.Order.CancellationComment)
	})

	t.Run("OtherWarehouseCannotCancel", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)

		other := access.Actor{ID: uuid.New(), Role: access.RoleWarehouse}
		_, err := f.svc.Transition(ctx, other, o.ID, ActionCancel, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("ReviseNotifiesOwner", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusRejected)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusRejected, StatusUnderRevision)).Return(nil)

		res, err := f.svc.Transition(ctx, accountant, o.ID, ActionRevise, "split into two orders")
		require.NoError(t, err)
		require.Len(t, f.events.events, 1)
		ev, ok := f.events.events[0].(notify.OrderUnderRevision)
		require.True(t, ok)
		assert.Equal(t, o.OwnerID, ev.OwnerID)
		assert.Equal(t, "split into two orders", ev.Comment)
		assert.Len(t, res.Events, 1)
	})

	t.Run("OwnerResubmits", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusUnderRevision)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusUnderRevision, StatusSubmitted)).Return(nil)

		res, err := f.svc.Transition(ctx, warehouse, o.ID, ActionResubmit, "")
		require.NoError(t, err)
		assert.Equal(t, StatusSubmitted, res.Order.Status)
	})

	t.Run("JournalFailureSuppressesEvents", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, mock.Anything).Return(errors.New("write failed"))

		_, err := f.svc.Transition(ctx, accountant, o.ID, ActionRevise, "")
		assert.Error(t, err)
		assert.Empty(t, f.events.events)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.repo.On("GetForUpdate", ctx, id).Return(nil, ErrOrderNotFound)

		_, err := f.svc.Transition(ctx, accountant, id, ActionValidate, "")
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})

	t.Run("UnknownAction", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Transition(ctx, accountant, uuid.New(), Action("approve"), "")
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestService_CreateOrder_QuantityBounds(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	for _, qty := range []int{0, -3, MaxQuantity + 1} {
		f := newFixture()
		_, err := f.svc.CreateOrder(ctx, warehouse, []LineInput{{ProductID: &productID, Quantity: qty}})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", qty)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestService_UpdateOrder(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("RecomputesTotal", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusRejected, Line{ProductID: productID, Quantity: 1, UnitPrice: price("10")})

		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)
		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).Return(map[uuid.UUID]*catalog.Product{
			productID: {ID: productID, UnitPrice: price("12")},
		}, nil)
		f.repo.On("ReplaceLines", ctx, o.ID, mock.Anything).Return(nil)
		f.repo.On("Update", ctx, o).Return(nil)
		f.journal.On("Append", ctx, entryMatching(StatusRejected, StatusRejected)).Return(nil)

		res, err := f.svc.UpdateOrder(ctx, warehouse, o.ID, []LineInput{{ProductID: &productID, Quantity: 3}})
		require.NoError(t, err)
		assert.Equal(t, "36", res.Order.TotalAmount.String())
		assert.Equal(t, StatusRejected, res.Order.Status)
		assert.Contains(t, res.Entry.Comment, "10 -> 36")
	})

	t.Run("NotEditable", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusValidated)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)

		_, err := f.svc.UpdateOrder(ctx, warehouse, o.ID, []LineInput{{ProductID: &productID, Quantity: 1}})
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
	})

	t.Run("NotOwner", func(t *testing.T) {
		f := newFixture()
		o := existingOrder(StatusSubmitted)
		f.repo.On("GetForUpdate", ctx, o.ID).Return(o, nil)

		other := access.Actor{ID: uuid.New(), Role: access.RoleWarehouse}
		_, err := f.svc.UpdateOrder(ctx, other, o.ID, []LineInput{{ProductID: &productID, Quantity: 1}})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestService_GetOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	o := existingOrder(StatusSubmitted)
	f.repo.On("GetByID", ctx, o.ID).Return(o, nil)

	got, err := f.svc.GetOrder(ctx, warehouse, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, accountant, o.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, access.Actor{ID: uuid.New(), Role: access.RoleWarehouse}, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("WarehouseSeesOwnOrders", func(t *testing.T) {
		f := newFixture()
		f.repo.On("List", ctx, mock.MatchedBy(func(q ListQuery) bool {
			return q.OwnerID != nil && *q.OwnerID == warehouse.ID && q.Status == nil
		})).Return([]*Order{existingOrder(StatusSubmitted)}, nil)

		orders, err := f.svc.ListOrders(ctx, warehouse, Filter{})
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("AccountingDefaultsToSubmitted", func(t *testing.T) {
		f := newFixture()
		f.repo.On("List", ctx, mock.MatchedBy(func(q ListQuery) bool {
			return q.OwnerID == nil && q.Status != nil && *q.Status == StatusSubmitted
		})).Return([]*Order{}, nil)

		_, err := f.svc.ListOrders(ctx, accountant, Filter{})
		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("AccountingMayPickStatus", func(t *testing.T) {
		f := newFixture()
		validated := StatusValidated
		f.repo.On("List", ctx, mock.MatchedBy(func(q ListQuery) bool {
			return q.Status != nil && *q.Status == StatusValidated
		})).Return([]*Order{}, nil)

		_, err := f.svc.ListOrders(ctx, accountant, Filter{Status: &validated})
		assert.NoError(t, err)
	})

	t.Run("OtherRolesForbidden", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ListOrders(ctx, manager, Filter{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("ScopeComesFromPolicy", func(t *testing.T) {
		f := newFixture()
		grants := allowOnly{access.ActionListOrders: true}
		svc := NewService(&fakeTx{}, f.repo, f.products, f.journal, grants, f.events, f.metrics)
		f.repo.On("List", ctx, mock.MatchedBy(func(q ListQuery) bool {
			return q.OwnerID == nil && q.Status != nil && *q.Status == StatusSubmitted
		})).Return([]*Order{}, nil)

		_, err := svc.ListOrders(ctx, manager, Filter{})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("BadInput", func(t *testing.T) {
		f := newFixture()
		bogus := Status("Approved")
		_, err := f.svc.ListOrders(ctx, accountant, Filter{Status: &bogus})
		assert.ErrorIs(t, err, ErrInvalidStatus)

		from, to := time.Now(), time.Now().Add(-time.Hour)
		_, err = f.svc.ListOrders(ctx, accountant, Filter{From: &from, To: &to})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("ManagementSeesEveryOrder", func(t *testing.T) {
		f := newFixture()
		want := &Stats{Counts: map[Status]int{StatusSubmitted: 2}, ValidatedTotal: decimal.Zero}
		f.repo.On("Stats", ctx, StatsQuery{}).Return(want, nil)

		got, err := f.svc.Stats(ctx, manager, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("WarehouseSeesOwnOrders", func(t *testing.T) {
		f := newFixture()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		want := &Stats{Counts: map[Status]int{StatusRejected: 1}, ValidatedTotal: decimal.Zero}
		f.repo.On("Stats", ctx, mock.MatchedBy(func(q StatsQuery) bool {
			return q.OwnerID != nil && *q.OwnerID == warehouse.ID && q.From != nil && q.From.Equal(from)
		})).Return(want, nil)

		got, err := f.svc.Stats(ctx, warehouse, &from, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Counts[StatusRejected])
		f.repo.AssertExpectations(t)
	})

	t.Run("AdminForbidden", func(t *testing.T) {
		f := newFixture()
		admin := access.Actor{ID: uuid.New(), Role: access.RoleAdmin}
		_, err := f.svc.Stats(ctx, admin, nil, nil)
		assert.ErrorIs(t, err, ErrForbidden)
		f.repo.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
	})
}
