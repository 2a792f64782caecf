package models

import "time"

// Business represents a small business managed through the back office.
// FeedToken holds the bank-feed access token encrypted at rest; FeedHMAC
// is an integrity tag over the plaintext token.
type Business struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"owner_email"`
	FeedToken  string    `json:"-"`
	FeedHMAC   string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
