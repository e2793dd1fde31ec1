package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/queue"
	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

// ListingFinder is the listing lookup needed to place an order.
type ListingFinder interface {
	GetByID(ctx context.Context, id string) (model.Listing, error)
}

// OrderStore persists orders and payments.  UpdateStatus and
// UpdatePayment are compare-and-swap on the record version and return
// repository.ErrConflict when it moved.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, o *model.Order) error
	UpdatePayment(ctx context.Context, p *model.Payment) error
}

// EventPublisher delivers order events.  Errors never fail an operation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

// Recorder receives workflow metrics.
type Recorder interface {
	OrderCreated()
	OrderTransition(from, to string)
	PaymentStatusUpdated(status string)
	EventPublishFailed()
}

// CreateOrderInput is the body of POST /orders.
type CreateOrderInput struct {
	ListingID        string       `json:"listingId" validate:"required,uuid"`
	BuyerName        string       `json:"buyerName" validate:"required,min=1,max=255"`
	BuyerPhone       string       `json:"buyerPhone" validate:"required,min=5,max=64"`
	BuyerEmail       *string      `json:"buyerEmail" validate:"omitempty,max=255,email"`
	DeliveryAddress  *string      `json:"deliveryAddress" validate:"omitempty,max=512"`
	DeliveryDistrict *string      `json:"deliveryDistrict" validate:"omitempty,max=128"`
	Notes            *string      `json:"notes"`
	Payment          PaymentInput `json:"payment"`
}

type PaymentInput struct {
	Method     string  `json:"method" validate:"required,oneof=CARD CASH BANK_TRANSFER"`
	CardNumber *string `json:"cardNumber"`
}

// UpdateStatusInput is the body of PATCH /orders/:id/status.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED IN_DELIVERY COMPLETED CANCELLED"`
}

// UpdatePaymentInput is the body of PATCH /orders/:id/payment-status.
type UpdatePaymentInput struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId" validate:"max=255"`
}

// OrderOptions toggles the configurable parts of the workflow.
type OrderOptions struct {
	// StrictTransitions rejects status changes outside the transition
	// table.  When false any enumerated status is accepted.
	StrictTransitions bool
	// StoreCardNumbers persists the full card number.
	StoreCardNumbers bool
}

type OrderService struct {
	listings ListingFinder
	orders   OrderStore
	events   EventPublisher
	rec      Recorder
	log      *zap.Logger
	opts     OrderOptions

	now          func() time.Time
	eventTimeout time.Duration
}

func NewOrderService(listings ListingFinder, orders OrderStore, events EventPublisher, rec Recorder, log *zap.Logger, opts OrderOptions) *OrderService {
	if events == nil {
		events = queue.Discard{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &OrderService{
		listings:     listings,
		orders:       orders,
		events:       events,
		rec:          rec,
		log:          log.Named("orders"),
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
		eventTimeout: 3 * time.Second,
	}
}

// CreateOrder places an order for in.ListingID on behalf of buyerID.  The
// listing id is checked first, then existence and ownership, and only then
// the remaining fields, so a self-purchase is reported as such even when
// the rest of the body is incomplete.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID string, in CreateOrderInput) (model.Order, error) {
	if err := validation.Var("listingId", in.ListingID, "required,uuid"); err != nil {
		return model.Order{}, err
	}
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, ErrListingNotFound
		}
		return model.Order{}, err
	}
	if listing.UserID == buyerID {
		return model.Order{}, ErrSelfPurchase
	}
	if err := validation.Struct(in); err != nil {
		return model.Order{}, err
	}

	payment := &model.Payment{
		Amount: listing.Price,
		Method: model.PaymentMethod(in.Payment.Method),
		Status: model.PaymentPending,
	}
	if in.Payment.CardNumber != nil && strings.TrimSpace(*in.Payment.CardNumber) != "" {
		card := strings.TrimSpace(*in.Payment.CardNumber)
		payment.CardLastFour = model.CardLastFour(card)
		if s.opts.StoreCardNumbers {
			payment.CardNumber = &card
		}
	}
	o := model.Order{
		TotalAmount:      listing.Price,
		BuyerID:          buyerID,
		SellerID:         listing.UserID,
		ListingID:        listing.ID,
		BuyerName:        strings.TrimSpace(in.BuyerName),
		BuyerPhone:       strings.TrimSpace(in.BuyerPhone),
		BuyerEmail:       in.BuyerEmail,
		DeliveryAddress:  in.DeliveryAddress,
		DeliveryDistrict: in.DeliveryDistrict,
		Notes:            in.Notes,
		Status:           model.OrderPending,
		Payment:          payment,
	}
	if err := s.orders.Create(ctx, &o); err != nil {
		return model.Order{}, err
	}
	s.rec.OrderCreated()
	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("listing_id", o.ListingID),
		zap.String("buyer_id", o.BuyerID),
		zap.String("seller_id", o.SellerID),
	)
	s.publish(ctx, eventFor(queue.EventOrderCreated, &o, ""))

	full, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		// The order exists; answer with what is known rather than a 500 that
		// would invite a duplicate retry.
		s.log.Warn("reload created order", zap.String("order_id", o.ID), zap.Error(err))
		seller := listing.User
		listing.User = nil
		o.Listing, o.Seller = &listing, seller
		return o, nil
	}
	return full, nil
}

// GetOrder returns the full order if userID is its buyer or seller.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !o.IsParticipant(userID) {
		return model.Order{}, ErrAccessDenied
	}
	return o, nil
}

// ListPurchases returns the buyer's orders with the seller as counterparty.
func (s *OrderService) ListPurchases(ctx context.Context, buyerID string) ([]model.Order, error) {
	orders, err := s.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Payment = orders[i].Payment.Summary()
		orders[i].Buyer = nil
	}
	return orders, nil
}

// ListSales returns the seller's orders with the buyer as counterparty.
func (s *OrderService) ListSales(ctx context.Context, sellerID string) ([]model.Order, error) {
	orders, err := s.orders.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Payment = orders[i].Payment.Summary()
		orders[i].Seller = nil
	}
	return orders, nil
}

// UpdateStatus applies a seller-initiated status change.  Buyers have no
// way to change an order.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID string, in UpdateStatusInput) (model.Order, error) {
	if err := validation.Struct(in); err != nil {
		return model.Order{}, err
	}
	next, _ := model.ParseOrderStatus(in.Status)

	o, err := s.load(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.SellerID != userID {
		return model.Order{}, ErrNotSeller
	}
	prev := o.Status
	if s.opts.StrictTransitions && !prev.CanTransitionTo(next) {
		return model.Order{}, &TransitionError{From: prev, To: next}
	}

	o.SetStatus(next, s.now())
	if err := s.orders.UpdateStatus(ctx, &o); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Order{}, ErrConcurrentUpdate
		}
		return model.Order{}, err
	}
	s.rec.OrderTransition(string(prev), string(next))
	s.log.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	s.publish(ctx, eventFor(queue.EventOrderStatusChanged, &o, string(prev)))
	return o, nil
}

// UpdatePaymentStatus records a payment status reported by the seller.
// Payment statuses are not constrained by a transition table.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, userID, orderID string, in UpdatePaymentInput) (model.Payment, error) {
	next, ok := model.ParsePaymentStatus(in.Status)
	if !ok {
		return model.Payment{}, ErrInvalidPaymentStatus
	}
	if err := validation.Struct(in); err != nil {
		return model.Payment{}, err
	}
	o, err := s.load(ctx, orderID)
	if err != nil {
		return model.Payment{}, err
	}
	if o.SellerID != userID {
		return model.Payment{}, ErrAccessDenied
	}
	p := o.Payment
	p.SetStatus(next, strings.TrimSpace(in.TransactionID), s.now())
	if err := s.orders.UpdatePayment(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Payment{}, ErrConcurrentUpdate
		}
		return model.Payment{}, err
	}
	s.rec.PaymentStatusUpdated(string(next))
	s.log.Info("payment status changed",
		zap.String("order_id", o.ID),
		zap.String("payment_id", p.ID),
		zap.String("status", string(next)),
	)
	s.publish(ctx, eventFor(queue.EventPaymentStatusChanged, &o, ""))
	return *p, nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (model.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, err
	}
	return o, nil
}

// publish sends ev detached from the request's cancellation, bounded by
// eventTimeout.  Failures are logged and counted only.
func (s *OrderService) publish(ctx context.Context, ev queue.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.eventTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.rec.EventPublishFailed()
		s.log.Warn("order event not published", zap.String("event", ev.Type), zap.String("order_id", ev.OrderID), zap.Error(err))
	}
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated() {}
func (nopRecorder) OrderTransition(from, to string) {}
func (nopRecorder) PaymentStatusUpdated(string) {}
func (nopRecorder) EventPublishFailed() {}

func eventFor(typ string, o *model.Order, prev string) queue.OrderEvent {
	ev := queue.OrderEvent{
		Type:           typ,
		OrderID:        o.ID,
		ListingID:      o.ListingID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		Status:         string(o.Status),
		PreviousStatus: prev,
		Amount:         o.TotalAmount.StringFixed(2),
		OccurredAt:     time.Now().UTC(),
	}
	if o.Payment != nil {
		ev.PaymentStatus = string(o.Payment.Status)
	}
	return ev
}
