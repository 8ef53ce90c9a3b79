package newsletter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// memStore is an in-memory SubscriberStore.
type memStore struct {
	byEmail map[string]*models.Subscriber
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]*models.Subscriber)}
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	if s, ok := m.byEmail[email]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	for _, s := range m.byEmail {
		if s.UnsubscribeToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(ctx context.Context, sub *models.Subscriber) error {
	sub.ID = uuid.New()
	cp := *sub
	m.byEmail[sub.Email] = &cp
	return nil
}

func (m *memStore) Update(ctx context.Context, sub *models.Subscriber) error {
	cp := *sub
	m.byEmail[sub.Email] = &cp
	return nil
}

func TestSubscribeNew(t *testing.T) {
	svc := NewService(newMemStore())

	sub, created, err := svc.Subscribe(context.Background(), "  Jane@Example.COM ", "Jane", "+90 555 000", "203.0.113.9")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "jane@example.com", sub.Email)
	assert.Equal(t, "Jane", sub.Name)
	assert.True(t, sub.IsActive)
	assert.Len(t, sub.UnsubscribeToken, 43)
	assert.Nil(t, sub.UnsubscribedAt)
}

func TestSubscribeExistingActive(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	first, _, err := svc.Subscribe(context.Background(), "jane@example.com", "Jane", "", "")
	require.NoError(t, err)

	second, created, err := svc.Subscribe(context.Background(), "JANE@example.com", "Jane Doe", "+90 555", "")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Jane Doe", second.Name)
	assert.Equal(t, "+90 555", second.Phone)
	// the token is issued once and survives resubscription
	assert.Equal(t, first.UnsubscribeToken, second.UnsubscribeToken)
}

func TestSubscribeEmptyFieldsKeepExisting(t *testing.T) {
	svc := NewService(newMemStore())

	_, _, err := svc.Subscribe(context.Background(), "jane@example.com", "Jane", "+90 555", "")
	require.NoError(t, err)

	sub, created, err := svc.Subscribe(context.Background(), "jane@example.com", "", "", "")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, "Jane", sub.Name)
	assert.Equal(t, "+90 555", sub.Phone)
}

func TestUnsubscribeAndReactivate(t *testing.T) {
	svc := NewService(newMemStore())

	sub, _, err := svc.Subscribe(context.Background(), "jane@example.com", "Jane", "", "")
	require.NoError(t, err)
	token := sub.UnsubscribeToken

	offed, err := svc.Unsubscribe(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, offed.IsActive)
	require.NotNil(t, offed.UnsubscribedAt)

	// resubscribing reactivates the same row with the same token
	again, created, err := svc.Subscribe(context.Background(), "jane@example.com", "", "", "198.51.100.7")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, again.IsActive)
	assert.Nil(t, again.UnsubscribedAt)
	assert.Equal(t, token, again.UnsubscribeToken)
}

func TestUnsubscribeIdempotent(t *testing.T) {
	svc := NewService(newMemStore())

	sub, _, err := svc.Subscribe(context.Background(), "jane@example.com", "Jane", "", "")
	require.NoError(t, err)

	first, err := svc.Unsubscribe(context.Background(), sub.UnsubscribeToken)
	require.NoError(t, err)
	firstAt := *first.UnsubscribedAt

	time.Sleep(5 * time.Millisecond)
	second, err := svc.Unsubscribe(context.Background(), sub.UnsubscribeToken)
	require.NoError(t, err)

	// the second call does not move the timestamp
	assert.Equal(t, firstAt, *second.UnsubscribedAt)
	assert.False(t, second.IsActive)
}

func TestUnsubscribeUnknownToken(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.Unsubscribe(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSubscriberNotFound)
}

func TestByToken(t *testing.T) {
	svc := NewService(newMemStore())

	sub, _, err := svc.Subscribe(context.Background(), "jane@example.com", "Jane", "", "")
	require.NoError(t, err)

	got, err := svc.ByToken(context.Background(), sub.UnsubscribeToken)
	require.NoError(t, err)
	assert.Equal(t, sub.Email, got.Email)

	_, err = svc.ByToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrSubscriberNotFound)
}
