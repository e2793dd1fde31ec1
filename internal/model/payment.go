package model

import (
    "time"

    "github.com/shopspring/decimal"
)

type PaymentMethod string

const (
    PaymentCard         PaymentMethod = "CARD"
    PaymentCash         PaymentMethod = "CASH"
    PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
    switch m {
    case PaymentCard, PaymentCash, PaymentBankTransfer:
        return true
    }
    return false
}

type PaymentStatus string

const (
    PaymentPending    PaymentStatus = "PENDING"
    PaymentProcessing PaymentStatus = "PROCESSING"
    PaymentCompleted  PaymentStatus = "COMPLETED"
    PaymentFailed     PaymentStatus = "FAILED"
    PaymentRefunded   PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus accepts exactly one of the enumerated status names.
// Payment status changes are not constrained by a transition table.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
    switch st := PaymentStatus(s); st {
    case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
        return st, true
    }
    return "", false
}

// Payment is the single payment record of an order.  CardNumber is only
// populated in single-order views and only when card storage is enabled.
type Payment struct {
    ID            string          `json:"id"`
    OrderID       string          `json:"orderId,omitempty"`
    Amount        decimal.Decimal `json:"amount"`
    Method        PaymentMethod   `json:"method"`
    CardNumber    *string         `json:"cardNumber,omitempty"`
    CardLastFour  *string         `json:"cardLastFour"`
    Status        PaymentStatus   `json:"status"`
    TransactionID *string         `json:"transactionId,omitempty"`
    PaidAt        *time.Time      `json:"paidAt"`
    Version       uint32          `json:"-"`
    CreatedAt     time.Time       `json:"createdAt"`
    UpdatedAt     time.Time       `json:"updatedAt"`
}

// CardLastFour returns the last four characters of a card number, or nil
// when no card number was supplied.  Shorter inputs are returned whole.
func CardLastFour(card string) *string {
    if card == "" {
        return nil
    }
    r := []rune(card)
    if len(r) > 4 {
        r = r[len(r)-4:]
    }
    s := string(r)
    return &s
}

// SetStatus moves the payment to next and keeps PaidAt consistent: set
// when next is COMPLETED, cleared otherwise.  A non-empty transactionID
// replaces the stored one.
func (p *Payment) SetStatus(next PaymentStatus, transactionID string, now time.Time) {
    p.Status = next
    if next == PaymentCompleted {
        t := now
        p.PaidAt = &t
    } else {
        p.PaidAt = nil
    }
    if transactionID != "" {
        tx := transactionID
        p.TransactionID = &tx
    }
    p.UpdatedAt = now
}

// Summary drops the card number and bookkeeping fields.  List views only
// ever expose the summary.
func (p *Payment) Summary() *Payment {
    if p == nil {
        return nil
    }
    return &Payment{
        ID:           p.ID,
        Amount:       p.Amount,
        Method:       p.Method,
        CardLastFour: p.CardLastFour,
        Status:       p.Status,
        PaidAt:       p.PaidAt,
        CreatedAt:    p.CreatedAt,
    }
}
