package newsletter

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// SubscriberStore is the persistence surface the subscription service needs.
// Lookups return (nil, nil) when no row matches.
type SubscriberStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	GetByToken(ctx context.Context, token string) (*models.Subscriber, error)
	Insert(ctx context.Context, sub *models.Subscriber) error
	Update(ctx context.Context, sub *models.Subscriber) error
}

// Service implements the subscribe/unsubscribe semantics: subscribe is
// idempotent by email, unsubscribe tokens are issued once and never rotated.
type Service struct {
	store SubscriberStore
	now   func() time.Time
}

// NewService creates a subscription service.
func NewService(store SubscriberStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Subscribe registers or reactivates a subscriber. Returns the subscriber and
// whether a new row was created. An inactive subscriber is reactivated with
// its original unsubscribe token; an active one keeps everything and only
// refreshes name and phone.
func (s *Service) Subscribe(ctx context.Context, email, name, phone, ip string) (*models.Subscriber, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		token, err := generateToken()
		if err != nil {
			return nil, false, err
		}
		sub := &models.Subscriber{
			Email:            email,
			Name:             name,
			Phone:            phone,
			IsActive:         true,
			SubscribedAt:     s.now(),
			IPAddress:        ip,
			UnsubscribeToken: token,
		}
		if err := s.store.Insert(ctx, sub); err != nil {
			return nil, false, err
		}
		return sub, true, nil
	}

	if name != "" {
		existing.Name = name
	}
	if phone != "" {
		existing.Phone = phone
	}
	if !existing.IsActive {
		existing.IsActive = true
		existing.UnsubscribedAt = nil
		existing.SubscribedAt = s.now()
		existing.IPAddress = ip
	}
	if err := s.store.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ByToken resolves a subscriber from its unsubscribe token, for the
// confirmation step. Returns ErrSubscriberNotFound for unknown tokens.
func (s *Service) ByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	sub, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriberNotFound
	}
	return sub, nil
}

// Unsubscribe deactivates the subscriber holding the token. Already-inactive
// subscribers are left untouched. The row is never deleted and the token stays
// valid so the link keeps working.
func (s *Service) Unsubscribe(ctx context.Context, token string) (*models.Subscriber, error) {
	sub, err := s.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return sub, nil
	}
	now := s.now()
	sub.IsActive = false
	sub.UnsubscribedAt = &now
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
