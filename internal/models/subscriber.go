package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a newsletter recipient. Email is the identity: re-subscribing
// an existing address reactivates the row instead of creating a new one, and
// the unsubscribe token is generated once and kept for the subscriber's lifetime.
type Subscriber struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	IsActive         bool       `json:"is_active"`
	SubscribedAt     time.Time  `json:"subscribed_at"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty"`
	IPAddress        string     `json:"ip_address,omitempty"`
	UnsubscribeToken string     `json:"-"`
}
