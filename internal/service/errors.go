// Package service implements the order workflow: purchase, status
// transitions and payment updates, together with their authorization
// rules.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrSelfPurchase         = errors.New("cannot purchase own listing")
	ErrAccessDenied         = errors.New("access denied")
	ErrNotSeller            = errors.New("only the seller may update the order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrConcurrentUpdate     = errors.New("order was modified concurrently")
)

// TransitionError reports a status change that is not an edge of the
// order state machine.  It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From, To model.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
