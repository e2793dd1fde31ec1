package model

import "time"

// Provider values for User.Provider.
const (
    ProviderLocal    = "local"
    ProviderGoogle   = "google"
    ProviderFacebook = "facebook"
)

// User represents a row in the `users` table.  PasswordHash is nil for
// accounts created through a federated provider; such accounts cannot log
// in with a password.  The hash is never serialised.
type User struct {
    ID           string    `json:"id"`
    Email        string    `json:"email"`
    Name         string    `json:"name"`
    Phone        *string   `json:"phone"`
    PasswordHash *string   `json:"-"`
    Provider     string    `json:"provider"`
    ProviderID   *string   `json:"-"`
    Avatar       *string   `json:"avatar"`
    CreatedAt    time.Time `json:"createdAt"`
    UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the public projection of a user embedded in listings,
// ISOs and orders.  Email and Phone are only filled where contact details
// are shown (listing detail, order views).
type UserSummary struct {
    ID    string  `json:"id"`
    Name  string  `json:"name"`
    Email string  `json:"email,omitempty"`
    Phone *string `json:"phone,omitempty"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
