package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/service"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

const (
	buyer   = "0b6c3c49-1f57-4a4e-9b5a-4f3c2f8f0001"
	seller  = "0b6c3c49-1f57-4a4e-9b5a-4f3c2f8f0002"
	listing = "0b6c3c49-1f57-4a4e-9b5a-4f3c2f8f0003"
	orderID = "0b6c3c49-1f57-4a4e-9b5a-4f3c2f8f0004"
)

func sampleOrder() model.Order {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	last4 := "4242"
	return model.Order{
		ID:          orderID,
		TotalAmount: decimal.RequireFromString("1500.50"),
		BuyerID:     buyer,
		SellerID:    seller,
		ListingID:   listing,
		BuyerName:   "Ana",
		BuyerPhone:  "0601234567",
		Status:      model.OrderPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Payment: &model.Payment{
			ID:           "pay-1",
			Amount:       decimal.RequireFromString("1500.50"),
			Method:       model.PaymentCard,
			CardLastFour: &last4,
			Status:       model.PaymentPending,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		},
	}
}

func TestOrderCreate_Created(t *testing.T) {
	e := newEcho()
	svc := new(mockOrders)
	svc.On("CreateOrder", mock.Anything, buyer, mock.MatchedBy(func(in service.CreateOrderInput) bool {
		return in.ListingID == listing && in.Payment.Method == "CARD" && in.Payment.CardNumber != nil
	})).Return(sampleOrder(), nil)

	body := `{"listingId":"` + listing + `","buyerName":"Ana","buyerPhone":"0601234567",
		"payment":{"method":"CARD","cardNumber":"4111111111114242"}}`
	rec := call(e, NewOrderHandler(svc).Create, jsonReq(http.MethodPost, "/orders", strings.NewReader(body)), buyer)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1500.5, got["totalAmount"])
	assert.Equal(t, "PENDING", got["status"])
	assert.NotContains(t, got, "version")
	pay := got["payment"].(map[string]any)
	assert.Equal(t, "4242", pay["cardLastFour"])
	svc.AssertExpectations(t)
}

func TestOrderCreate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"self purchase", service.ErrSelfPurchase, http.StatusBadRequest, `{"error":"Cannot purchase your own listing"}`},
		{"listing missing", service.ErrListingNotFound, http.StatusNotFound, `{"error":"Listing not found"}`},
		{"validation", validation.NewError("buyerPhone", "must be at least 5 characters"), http.StatusBadRequest,
			`{"error":"validation failed","details":{"buyerPhone":"must be at least 5 characters"}}`},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockOrders)
			svc.On("CreateOrder", mock.Anything, buyer, mock.Anything).Return(model.Order{}, tc.err)
			rec := call(newEcho(), NewOrderHandler(svc).Create,
				jsonReq(http.MethodPost, "/orders", strings.NewReader(`{"listingId":"`+listing+`"}`)), buyer)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestOrderCreate_MalformedBody(t *testing.T) {
	svc := new(mockOrders)
	rec := call(newEcho(), NewOrderHandler(svc).Create, jsonReq(http.MethodPost, "/orders", strings.NewReader(`{"listingId":`)), buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderGet(t *testing.T) {
	svc := new(mockOrders)
	svc.On("GetOrder", mock.Anything, buyer, orderID).Return(sampleOrder(), nil)
	svc.On("GetOrder", mock.Anything, "stranger", orderID).Return(model.Order{}, service.ErrAccessDenied)
	svc.On("GetOrder", mock.Anything, buyer, "missing").Return(model.Order{}, service.ErrOrderNotFound)
	h := NewOrderHandler(svc)
	e := newEcho()

	rec := call(e, h.Get, jsonReq(http.MethodGet, "/orders/"+orderID, nil), buyer, "id", orderID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, h.Get, jsonReq(http.MethodGet, "/orders/"+orderID, nil), "stranger", "id", orderID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, rec.Body.String())

	rec = call(e, h.Get, jsonReq(http.MethodGet, "/orders/missing", nil), buyer, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}

func TestOrderLists(t *testing.T) {
	svc := new(mockOrders)
	o := sampleOrder()
	o.Payment = o.Payment.Summary()
	svc.On("ListPurchases", mock.Anything, buyer).Return([]model.Order{o}, nil)
	svc.On("ListSales", mock.Anything, seller).Return([]model.Order{}, nil)
	h := NewOrderHandler(svc)
	e := newEcho()

	rec := call(e, h.MyPurchases, jsonReq(http.MethodGet, "/orders/my-purchases", nil), buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cardNumber")

	rec = call(e, h.MySales, jsonReq(http.MethodGet, "/orders/my-sales", nil), seller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestOrderUpdateStatus(t *testing.T) {
	svc := new(mockOrders)
	done := sampleOrder()
	done.Status = model.OrderConfirmed
	svc.On("UpdateStatus", mock.Anything, seller, orderID, service.UpdateStatusInput{Status: "CONFIRMED"}).Return(done, nil)
	svc.On("UpdateStatus", mock.Anything, buyer, orderID, mock.Anything).Return(model.Order{}, service.ErrNotSeller)
	svc.On("UpdateStatus", mock.Anything, seller, "terminal", mock.Anything).
		Return(model.Order{}, &service.TransitionError{From: model.OrderCompleted, To: model.OrderPending})
	svc.On("UpdateStatus", mock.Anything, seller, "raced", mock.Anything).Return(model.Order{}, service.ErrConcurrentUpdate)
	h := NewOrderHandler(svc)
	e := newEcho()
	body := func(s string) *strings.Reader { return strings.NewReader(`{"status":"` + s + `"}`) }

	rec := call(e, h.UpdateStatus, jsonReq(http.MethodPatch, "/", body("CONFIRMED")), seller, "id", orderID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)

	rec = call(e, h.UpdateStatus, jsonReq(http.MethodPatch, "/", body("CONFIRMED")), buyer, "id", orderID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Only seller can update order status"}`, rec.Body.String())

	rec = call(e, h.UpdateStatus, jsonReq(http.MethodPatch, "/", body("PENDING")), seller, "id", "terminal")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"cannot change order status from COMPLETED to PENDING","allowed":[]}`, rec.Body.String())

	rec = call(e, h.UpdateStatus, jsonReq(http.MethodPatch, "/", body("SHIPPED")), seller, "id", "raced")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderUpdatePaymentStatus(t *testing.T) {
	svc := new(mockOrders)
	paid := *sampleOrder().Payment
	paid.Status = model.PaymentCompleted
	svc.On("UpdatePaymentStatus", mock.Anything, seller, orderID,
		service.UpdatePaymentInput{Status: "COMPLETED", TransactionID: "tx-1"}).Return(paid, nil)
	svc.On("UpdatePaymentStatus", mock.Anything, seller, orderID,
		service.UpdatePaymentInput{Status: "DONE"}).Return(model.Payment{}, service.ErrInvalidPaymentStatus)
	h := NewOrderHandler(svc)
	e := newEcho()

	rec := call(e, h.UpdatePaymentStatus,
		jsonReq(http.MethodPatch, "/", strings.NewReader(`{"status":"COMPLETED","transactionId":"tx-1"}`)), seller, "id", orderID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)

	rec = call(e, h.UpdatePaymentStatus,
		jsonReq(http.MethodPatch, "/", strings.NewReader(`{"status":"DONE"}`)), seller, "id", orderID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid payment status"}`, rec.Body.String())
}
