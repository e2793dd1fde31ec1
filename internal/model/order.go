package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
    OrderPending    OrderStatus = "PENDING"
    OrderConfirmed  OrderStatus = "CONFIRMED"
    OrderInDelivery OrderStatus = "IN_DELIVERY"
    OrderCompleted  OrderStatus = "COMPLETED"
    OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the adjacency table of the order state machine.
// COMPLETED and CANCELLED have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
    OrderPending:    {OrderConfirmed, OrderCancelled},
    OrderConfirmed:  {OrderInDelivery, OrderCancelled},
    OrderInDelivery: {OrderCompleted},
    OrderCompleted:  nil,
    OrderCancelled:  nil,
}

// ParseOrderStatus accepts exactly one of the enumerated status names.
func ParseOrderStatus(s string) (OrderStatus, bool) {
    st := OrderStatus(s)
    if _, ok := orderTransitions[st]; !ok {
        return "", false
    }
    return st, true
}

func (s OrderStatus) Valid() bool {
    _, ok := orderTransitions[s]
    return ok
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
    return s.Valid() && len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a direct successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
    for _, n := range orderTransitions[s] {
        if n == next {
            return true
        }
    }
    return false
}

// NextStatuses lists the states reachable from s in one step.
func (s OrderStatus) NextStatuses() []OrderStatus {
    out := make([]OrderStatus, len(orderTransitions[s]))
    copy(out, orderTransitions[s])
    return out
}

// Order is a purchase of a single listing.  TotalAmount and SellerID are
// snapshots of the listing at creation time.  Version guards concurrent
// status updates.
type Order struct {
    ID               string          `json:"id"`
    TotalAmount      decimal.Decimal `json:"totalAmount"`
    BuyerID          string          `json:"buyerId"`
    SellerID         string          `json:"sellerId"`
    ListingID        string          `json:"listingId"`
    BuyerName        string          `json:"buyerName"`
    BuyerPhone       string          `json:"buyerPhone"`
    BuyerEmail       *string         `json:"buyerEmail"`
    DeliveryAddress  *string         `json:"deliveryAddress"`
    DeliveryDistrict *string         `json:"deliveryDistrict"`
    Notes            *string         `json:"notes"`
    Status           OrderStatus     `json:"status"`
    Version          uint32          `json:"-"`
    CompletedAt      *time.Time      `json:"completedAt"`
    CreatedAt        time.Time       `json:"createdAt"`
    UpdatedAt        time.Time       `json:"updatedAt"`

    Payment *Payment     `json:"payment,omitempty"`
    Listing *Listing     `json:"listing,omitempty"`
    Buyer   *UserSummary `json:"buyer,omitempty"`
    Seller  *UserSummary `json:"seller,omitempty"`
}

// IsParticipant reports whether userID is the buyer or the seller.
func (o *Order) IsParticipant(userID string) bool {
    return userID != "" && (o.BuyerID == userID || o.SellerID == userID)
}

// SetStatus moves the order to next and keeps CompletedAt consistent:
// set when next is COMPLETED, cleared otherwise.  It does not check the
// transition table.
func (o *Order) SetStatus(next OrderStatus, now time.Time) {
    o.Status = next
    if next == OrderCompleted {
        t := now
        o.CompletedAt = &t
    } else {
        o.CompletedAt = nil
    }
    o.UpdatedAt = now
}
