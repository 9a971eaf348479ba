package transport

import (
	"context"
	"net/http"
	"testing"

	"procurement-be/internal/access"
	"procurement-be/internal/catalog"
	"procurement-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) CreateProduct(ctx context.Context, actor access.Actor, in catalog.CreateProductInput) (*catalog.Product, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProducts) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProducts) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProducts) SetPrice(ctx context.Context, actor access.Actor, id uuid.UUID, price decimal.Decimal) (*catalog.Product, error) {
	args := m.Called(ctx, actor, id, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) ListUsers(ctx context.Context, actor access.Actor) ([]*user.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUsers) UpdateRole(ctx context.Context, actor access.Actor, id uuid.UUID, role access.Role) (*user.User, error) {
	args := m.Called(ctx, actor, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func TestCreateProduct(t *testing.T) {
	products := new(MockProducts)
	h := (&Handler{Products: products}).Routes()

	widget := &catalog.Product{ID: uuid.New(), Name: "Widget", CriticalThreshold: 5}
	products.On("CreateProduct", mock.Anything, accountant, mock.MatchedBy(func(in catalog.CreateProductInput) bool {
		return in.Name == "Widget" &&
			in.UnitPrice != nil && in.UnitPrice.Equal(decimal.RequireFromString("2.50")) &&
			in.CriticalThreshold != nil && *in.CriticalThreshold == 5
	})).Return(widget, nil).Once()

	w := do(h, http.MethodPost, "/products", `{"name":"Widget","unitPrice":"2.50","criticalThreshold":5}`, &accountant)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Widget"`)

	products.On("CreateProduct", mock.Anything, accountant, mock.Anything).
		Return(nil, catalog.ErrDuplicateName).Once()
	w = do(h, http.MethodPost, "/products", `{"name":"Widget"}`, &accountant)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DuplicateName", string(decodeError(t, w).Kind))

	w = do(h, http.MethodPost, "/products", `{"name":"Widget"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	products.AssertExpectations(t)
}

func TestGetAndListProducts(t *testing.T) {
	products := new(MockProducts)
	h := (&Handler{Products: products}).Routes()

	missing := uuid.New()
	products.On("GetProduct", mock.Anything, missing).Return(nil, catalog.ErrProductNotFound)
	products.On("ListProducts", mock.Anything).Return([]*catalog.Product{{ID: uuid.New(), Name: "Bolt"}}, nil)

	w := do(h, http.MethodGet, "/products/"+missing.String(), "", &clerk)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(h, http.MethodGet, "/products/not-a-uuid", "", &clerk)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/products", "", &clerk)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Bolt"`)
}

func TestSetPrice(t *testing.T) {
	products := new(MockProducts)
	h := (&Handler{Products: products}).Routes()

	id := uuid.New()
	price := decimal.RequireFromString("4.20")
	products.On("SetPrice", mock.Anything, accountant, id, mock.MatchedBy(price.Equal)).
		Return(&catalog.Product{ID: id, Name: "Widget", UnitPrice: decimal.NewNullDecimal(price)}, nil)

	w := do(h, http.MethodPut, "/products/"+id.String()+"/price", `{"unitPrice":"4.20"}`, &accountant)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPut, "/products/"+id.String()+"/price", `{}`, &accountant)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unitPrice is required", decodeError(t, w).Message)

	products.AssertNumberOfCalls(t, "SetPrice", 1)
}

func TestUserAdministration(t *testing.T) {
	users := new(MockUsers)
	h := (&Handler{Users: users}).Routes()

	target := uuid.New()
	users.On("ListUsers", mock.Anything, admin).
		Return([]*user.User{{ID: target, Name: "Ana", Role: access.RoleWarehouse}}, nil)
	users.On("UpdateRole", mock.Anything, admin, target, access.RoleAccounting).
		Return(&user.User{ID: target, Name: "Ana", Role: access.RoleAccounting}, nil)
	users.On("ListUsers", mock.Anything, clerk).Return(nil, user.ErrForbidden)

	w := do(h, http.MethodGet, "/users", "", &admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Ana"`)

	w = do(h, http.MethodPut, "/users/"+target.String()+"/role", `{"role":"ACCOUNTING"}`, &admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"ACCOUNTING"`)

	w = do(h, http.MethodGet, "/users", "", &clerk)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
