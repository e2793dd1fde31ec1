// Package queue carries order events over RabbitMQ: the payload type, the
// publisher used by the order service and an optional consumer that keeps
// an append-only order log.
package queue

import "time"

// Event types.
const (
    EventOrderCreated         = "order.created"
    EventOrderStatusChanged   = "order.status_changed"
    EventPaymentStatusChanged = "payment.status_changed"
)

// OrderEvent is published after every successful order mutation.  It
// carries enough for downstream consumers to log or notify without
// querying the database.
type OrderEvent struct {
    Type           string    `json:"type"`
    OrderID        string    `json:"order_id"`
    ListingID      string    `json:"listing_id"`
    BuyerID        string    `json:"buyer_id"`
    SellerID       string    `json:"seller_id"`
    Status         string    `json:"status"`
    PreviousStatus string    `json:"previous_status,omitempty"`
    PaymentStatus  string    `json:"payment_status"`
    Amount         string    `json:"amount"`
    OccurredAt     time.Time `json:"occurred_at"`
}
