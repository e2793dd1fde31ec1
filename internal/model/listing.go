package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Listing is an item offered for sale.  Photos are ordered by creation
// time; User carries the owner summary in feed and detail views.
type Listing struct {
    ID          string          `json:"id"`
    Title       string          `json:"title"`
    Description *string         `json:"description"`
    Price       decimal.Decimal `json:"price"`
    Age         *string         `json:"age"`
    Size        *string         `json:"size"`
    District    string          `json:"district"`
    UserID      string          `json:"userId"`
    CreatedAt   time.Time       `json:"createdAt"`
    UpdatedAt   time.Time       `json:"updatedAt"`
    Photos      []Photo         `json:"photos"`
    User        *UserSummary    `json:"user,omitempty"`
}

// Photo is an image attached to a listing.
type Photo struct {
    ID        string    `json:"id"`
    URL       string    `json:"url"`
    ListingID string    `json:"listingId"`
    CreatedAt time.Time `json:"createdAt"`
}

// ListingFilter holds the optional criteria of the public listing feed.
// Nil fields do not constrain the result.
type ListingFilter struct {
    Search   string
    District string
    Age      string
    Size     string
    MinPrice *decimal.Decimal
    MaxPrice *decimal.Decimal
}
