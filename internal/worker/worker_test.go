package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/internal/newsletter"
	"github.com/ufukcicekdev/RealInvest/pkg/queue"
)

type fakeSettings struct {
	record *models.SiteSettings
}

func (f *fakeSettings) Get(ctx context.Context) (*models.SiteSettings, error) {
	return f.record, nil
}

type failingDialer struct {
	opens atomic.Int32
}

func (d *failingDialer) Open(ctx context.Context, cfg models.MailConfig) (newsletter.Conn, error) {
	d.opens.Add(1)
	return nil, errors.New("connection refused")
}

func smtpSettings() *models.SiteSettings {
	return &models.SiteSettings{
		SiteName:     "RealInvest",
		Email:        "office@realinvest.example",
		SMTPHost:     "smtp.example.com",
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
	}
}

func newTestQueue(t *testing.T) (*queue.Queue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.NewQueue(client, nil), client
}

func TestRunRetriesWithBackoffThenDeadLetters(t *testing.T) {
	q, client := newTestQueue(t)
	dialer := &failingDialer{}
	p := NewEmailProcessor(&fakeSettings{record: smtpSettings()}, dialer, q, nil)
	p.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.EnqueueContactNotification(ctx, queue.ContactNotificationPayload{
		MessageID: uuid.New(),
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Message:   "interested in the villa listing",
	}))

	done := make(chan struct{})
	start := time.Now()
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), queue.QueueDLQ).Result()
		return err == nil && n == 1
	}, 2*time.Second, 5*time.Millisecond, "failed job should land in the DLQ after retries")

	assert.GreaterOrEqual(t, time.Since(start), 2*p.backoff,
		"retries should be spaced by the backoff, not fired back to back")
	assert.Equal(t, int32(queue.MaxRetries), dialer.opens.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestProcessDropsJobWithoutOperatorEmail(t *testing.T) {
	q, _ := newTestQueue(t)
	dialer := &failingDialer{}
	p := NewEmailProcessor(&fakeSettings{record: nil}, dialer, q, nil)

	job := &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeContactNotification, Payload: []byte(`{}`)}
	require.NoError(t, p.Process(context.Background(), job))
	assert.Zero(t, dialer.opens.Load(), "no SMTP dial without an operator address")
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	q, _ := newTestQueue(t)
	p := NewEmailProcessor(&fakeSettings{record: smtpSettings()}, &failingDialer{}, q, nil)

	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "mystery"})
	assert.Error(t, err)
}
