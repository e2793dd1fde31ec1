package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/middleware"
	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/service"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	return e
}

// call runs h the way the router would, including the error handler.
// params are name/value pairs for path parameters.
func call(e *echo.Echo, h echo.HandlerFunc, req *http.Request, uid string, params ...string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set(middleware.CtxUserID, uid)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func jsonReq(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) CreateOrder(ctx context.Context, buyerID string, in service.CreateOrderInput) (model.Order, error) {
	args := m.Called(ctx, buyerID, in)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockOrders) GetOrder(ctx context.Context, userID, orderID string) (model.Order, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockOrders) ListPurchases(ctx context.Context, buyerID string) ([]model.Order, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockOrders) ListSales(ctx context.Context, sellerID string) ([]model.Order, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, userID, orderID string, in service.UpdateStatusInput) (model.Order, error) {
	args := m.Called(ctx, userID, orderID, in)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *mockOrders) UpdatePaymentStatus(ctx context.Context, userID, orderID string, in service.UpdatePaymentInput) (model.Payment, error) {
	args := m.Called(ctx, userID, orderID, in)
	return args.Get(0).(model.Payment), args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, in repository.NewUser, cost int) (model.User, error) {
	args := m.Called(ctx, in, cost)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) UpdateProfile(ctx context.Context, id string, p repository.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(model.User), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockListings struct{ mock.Mock }

func (m *mockListings) Create(ctx context.Context, l *model.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockListings) GetByID(ctx context.Context, id string) (model.Listing, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Listing), args.Error(1)
}

func (m *mockListings) List(ctx context.Context, f model.ListingFilter) ([]model.Listing, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Listing), args.Error(1)
}

func (m *mockListings) ListByUser(ctx context.Context, userID string) ([]model.Listing, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Listing), args.Error(1)
}

type mockISOs struct{ mock.Mock }

func (m *mockISOs) Create(ctx context.Context, iso *model.ISO) error {
	return m.Called(ctx, iso).Error(0)
}

func (m *mockISOs) ListActive(ctx context.Context, at time.Time) ([]model.ISO, error) {
	args := m.Called(ctx, at)
	return args.Get(0).([]model.ISO), args.Error(1)
}

func (m *mockISOs) ListByUser(ctx context.Context, userID string) ([]model.ISO, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.ISO), args.Error(1)
}

type mockPhotos struct{ mock.Mock }

func (m *mockPhotos) Create(ctx context.Context, listingID, url string) (model.Photo, error) {
	args := m.Called(ctx, listingID, url)
	return args.Get(0).(model.Photo), args.Error(1)
}

func (m *mockPhotos) CountByListing(ctx context.Context, listingID string) (int, error) {
	args := m.Called(ctx, listingID)
	return args.Int(0), args.Error(1)
}

type mockFiles struct{ mock.Mock }

func (m *mockFiles) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}
