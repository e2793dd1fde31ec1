package model

import (
    "math"
    "time"

    "github.com/shopspring/decimal"
)

const (
    // DefaultISODays is the lifetime of an ISO request when none is given.
    DefaultISODays = 7
    MinISODays     = 1
    MaxISODays     = 30
)

// ISO ("in search of") is a time-limited want-ad.  DaysLeft is derived on
// every read and never stored.
type ISO struct {
    ID          string           `json:"id"`
    Title       string           `json:"title"`
    Description *string          `json:"description"`
    Budget      *decimal.Decimal `json:"budget"`
    Age         *string          `json:"age"`
    Size        *string          `json:"size"`
    District    *string          `json:"district"`
    UserID      string           `json:"userId"`
    ExpiresAt   time.Time        `json:"expiresAt"`
    CreatedAt   time.Time        `json:"createdAt"`
    DaysLeft    int              `json:"daysLeft"`
    User        *UserSummary     `json:"user,omitempty"`
}

// ISOExpiry returns the expiry of an ISO created at createdAt that stays
// open for days calendar days.
func ISOExpiry(createdAt time.Time, days int) time.Time {
    return createdAt.AddDate(0, 0, days)
}

// DaysLeft is ceil((expiresAt - now) / 24h).  It is zero or negative for
// an expired request.
func DaysLeft(expiresAt, now time.Time) int {
    d := expiresAt.Sub(now)
    return int(math.Ceil(d.Hours() / 24))
}

// Active reports whether the request is still visible in the feed.
func (i *ISO) Active(now time.Time) bool {
    return i.ExpiresAt.After(now)
}

// WithDaysLeft fills DaysLeft relative to now.
func (i *ISO) WithDaysLeft(now time.Time) {
    i.DaysLeft = DaysLeft(i.ExpiresAt, now)
}
