package newsletter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

type fakeSubscribers struct {
	subs []models.Subscriber
	err  error
}

func (f *fakeSubscribers) ListActive(ctx context.Context) ([]models.Subscriber, error) {
	return f.subs, f.err
}

type commit struct {
	status models.CampaignStatus
	total  int
	sent   int
	failed int
	sentAt *time.Time
}

type fakeCampaignStore struct {
	claimDenied bool
	claimErr    error
	claims      int
	commits     []commit
}

func (f *fakeCampaignStore) MarkSending(ctx context.Context, id uuid.UUID, total int) (bool, error) {
	f.claims++
	if f.claimErr != nil {
		return false, f.claimErr
	}
	return !f.claimDenied, nil
}

func (f *fakeCampaignStore) CommitResult(ctx context.Context, id uuid.UUID, status models.CampaignStatus, total, sent, failed int, sentAt *time.Time) error {
	f.commits = append(f.commits, commit{status: status, total: total, sent: sent, failed: failed, sentAt: sentAt})
	return nil
}

type fakeAudit struct {
	entries []models.CampaignLog
}

func (f *fakeAudit) Append(ctx context.Context, e *models.CampaignLog) error {
	f.entries = append(f.entries, *e)
	return nil
}

type fakeSettings struct {
	settings *models.SiteSettings
	err      error
}

func (f *fakeSettings) Get(ctx context.Context) (*models.SiteSettings, error) {
	return f.settings, f.err
}

// fakeConn records sends and fails for addresses listed in failFor.
type fakeConn struct {
	sent    []Message
	failFor map[string]error
	closed  bool
}

func (c *fakeConn) Send(ctx context.Context, m Message) error {
	if err, ok := c.failFor[m.To]; ok {
		return err
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conn    *fakeConn
	openErr error
	opens   int
}

func (d *fakeDialer) Open(ctx context.Context, cfg models.MailConfig) (Conn, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.conn, nil
}

type staticRenderer struct {
	failFor map[string]bool
}

func (r *staticRenderer) Render(c *models.Campaign, sub *models.Subscriber, st *models.SiteSettings) (string, string, error) {
	if r.failFor[sub.Email] {
		return "", "", errors.New("bad template")
	}
	return "<p>hello " + sub.Name + "</p>", "hello " + sub.Name, nil
}

func validSettings() *models.SiteSettings {
	return &models.SiteSettings{
		SiteName:     "RealInvest",
		Email:        "info@realinvest.example",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
		SMTPUseTLS:   true,
		EmailFrom:    "news@realinvest.example",
	}
}

func threeSubscribers() []models.Subscriber {
	return []models.Subscriber{
		{ID: uuid.New(), Email: "a@example.com", Name: "Ana", IsActive: true, UnsubscribeToken: "tok-a"},
		{ID: uuid.New(), Email: "b@example.com", Name: "Ben", IsActive: true, UnsubscribeToken: "tok-b"},
		{ID: uuid.New(), Email: "c@example.com", Name: "Cem", IsActive: true, UnsubscribeToken: "tok-c"},
	}
}

func draftCampaign() *models.Campaign {
	return &models.Campaign{ID: uuid.New(), Title: "October news", Subject: "News", Content: "body", Status: models.CampaignDraft}
}

func newTestOrchestrator(subs SubscriberSource, store CampaignStore, audit AuditLog, st SettingsSource, d Dialer) *Orchestrator {
	return NewOrchestrator(subs, store, audit, st, d, &staticRenderer{}, nil)
}

func TestSendAllDelivered(t *testing.T) {
	conn := &fakeConn{}
	dialer := &fakeDialer{conn: conn}
	store := &fakeCampaignStore{}
	audit := &fakeAudit{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, audit, &fakeSettings{settings: validSettings()}, dialer)

	c := draftCampaign()
	out := orch.Send(context.Background(), c)

	assert.Equal(t, models.CampaignSent, out.Status)
	assert.Equal(t, LevelSuccess, out.Level)
	assert.Equal(t, 3, out.TotalRecipients)
	assert.Equal(t, 3, out.SentCount)
	assert.Equal(t, 0, out.FailedCount)

	// one info header, three per-recipient entries, one summary
	require.Len(t, audit.entries, 5)
	assert.Equal(t, models.LogInfo, audit.entries[0].Level)
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		assert.Equal(t, models.LogSuccess, audit.entries[i+1].Level)
		assert.Equal(t, email, audit.entries[i+1].SubscriberEmail)
	}
	assert.Equal(t, models.LogSuccess, audit.entries[4].Level)

	// recipients in listing order, single commit, session closed
	require.Len(t, conn.sent, 3)
	assert.Equal(t, "a@example.com", conn.sent[0].To)
	assert.True(t, conn.closed)
	require.Len(t, store.commits, 1)
	assert.Equal(t, models.CampaignSent, store.commits[0].status)
	assert.NotNil(t, store.commits[0].sentAt)

	// campaign mutated in place
	assert.Equal(t, models.CampaignSent, c.Status)
	assert.Equal(t, 3, c.SentCount)
	assert.NotNil(t, c.SentAt)
}

func TestSendPartialFailure(t *testing.T) {
	conn := &fakeConn{failFor: map[string]error{"b@example.com": errors.New("mailbox full")}}
	dialer := &fakeDialer{conn: conn}
	store := &fakeCampaignStore{}
	audit := &fakeAudit{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, audit, &fakeSettings{settings: validSettings()}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignSent, out.Status)
	assert.Equal(t, LevelWarning, out.Level)
	assert.Equal(t, 2, out.SentCount)
	assert.Equal(t, 1, out.FailedCount)

	// the failure did not stop the remaining recipients
	require.Len(t, conn.sent, 2)
	assert.Equal(t, "c@example.com", conn.sent[1].To)

	require.Len(t, audit.entries, 5)
	assert.Equal(t, models.LogError, audit.entries[2].Level)
	assert.Equal(t, "b@example.com", audit.entries[2].SubscriberEmail)
	assert.Equal(t, "mailbox full", audit.entries[2].ErrorDetails)
	assert.Equal(t, models.LogWarning, audit.entries[4].Level)

	require.Len(t, store.commits, 1)
	assert.Equal(t, commit{status: models.CampaignSent, total: 3, sent: 2, failed: 1, sentAt: store.commits[0].sentAt}, store.commits[0])
}

func TestSendAllFailed(t *testing.T) {
	conn := &fakeConn{failFor: map[string]error{
		"a@example.com": errors.New("rejected"),
		"b@example.com": errors.New("rejected"),
		"c@example.com": errors.New("rejected"),
	}}
	store := &fakeCampaignStore{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, &fakeAudit{}, &fakeSettings{settings: validSettings()}, &fakeDialer{conn: conn})

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	assert.Equal(t, LevelError, out.Level)
	assert.Equal(t, 0, out.SentCount)
	assert.Equal(t, 3, out.FailedCount)
	assert.True(t, conn.closed)
}

func TestSendRenderFailureCountsAsFailed(t *testing.T) {
	conn := &fakeConn{}
	orch := NewOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, &fakeCampaignStore{}, &fakeAudit{},
		&fakeSettings{settings: validSettings()}, &fakeDialer{conn: conn},
		&staticRenderer{failFor: map[string]bool{"a@example.com": true}}, nil)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, 2, out.SentCount)
	assert.Equal(t, 1, out.FailedCount)
	require.Len(t, conn.sent, 2)
}

func TestSendNoActiveSubscribers(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	store := &fakeCampaignStore{}
	audit := &fakeAudit{}
	orch := newTestOrchestrator(&fakeSubscribers{}, store, audit, &fakeSettings{settings: validSettings()}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	assert.Equal(t, LevelError, out.Level)
	assert.Zero(t, dialer.opens)
	assert.Zero(t, store.claims)
	require.Len(t, store.commits, 1)
	assert.Equal(t, models.CampaignFailed, store.commits[0].status)
}

func TestSendIncompleteMailConfig(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	st := validSettings()
	st.SMTPHost = ""
	audit := &fakeAudit{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, &fakeCampaignStore{}, audit, &fakeSettings{settings: st}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	assert.Contains(t, out.Message, "smtp settings are incomplete")
	// no transport activity at all
	assert.Zero(t, dialer.opens)

	last := audit.entries[len(audit.entries)-1]
	assert.Equal(t, models.LogError, last.Level)
}

func TestSendMissingSettingsRecord(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, &fakeCampaignStore{}, &fakeAudit{}, &fakeSettings{}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	assert.Zero(t, dialer.opens)
}

func TestSendConnectFailure(t *testing.T) {
	dialer := &fakeDialer{openErr: &ConnectError{Err: errors.New("dial tcp: connection refused")}}
	audit := &fakeAudit{}
	store := &fakeCampaignStore{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, audit, &fakeSettings{settings: validSettings()}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	assert.Contains(t, out.Message, "smtp.example.com:587")

	// header entry plus the connection failure, no per-recipient entries
	require.Len(t, audit.entries, 2)
	assert.Equal(t, models.LogError, audit.entries[1].Level)
	assert.Contains(t, audit.entries[1].ErrorDetails, "connection refused")
}

func TestSendAlreadySentSkips(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	store := &fakeCampaignStore{}
	audit := &fakeAudit{}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, audit, &fakeSettings{settings: validSettings()}, dialer)

	for _, status := range []models.CampaignStatus{models.CampaignSent, models.CampaignSending} {
		c := draftCampaign()
		c.Status = status
		out := orch.Send(context.Background(), c)
		assert.Equal(t, LevelWarning, out.Level)
		assert.Equal(t, status, out.Status)
	}

	// skip leaves no trace: no audit entries, no claims, no commits
	assert.Empty(t, audit.entries)
	assert.Zero(t, store.claims)
	assert.Empty(t, store.commits)
	assert.Zero(t, dialer.opens)
}

func TestSendClaimLost(t *testing.T) {
	dialer := &fakeDialer{conn: &fakeConn{}}
	store := &fakeCampaignStore{claimDenied: true}
	orch := newTestOrchestrator(&fakeSubscribers{subs: threeSubscribers()}, store, &fakeAudit{}, &fakeSettings{settings: validSettings()}, dialer)

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, LevelWarning, out.Level)
	assert.Equal(t, models.CampaignSending, out.Status)
	assert.Zero(t, dialer.opens)
	assert.Empty(t, store.commits)
}

func TestSendSubscriberQueryError(t *testing.T) {
	store := &fakeCampaignStore{}
	orch := newTestOrchestrator(&fakeSubscribers{err: fmt.Errorf("connection reset")}, store, &fakeAudit{}, &fakeSettings{settings: validSettings()}, &fakeDialer{conn: &fakeConn{}})

	out := orch.Send(context.Background(), draftCampaign())

	assert.Equal(t, models.CampaignFailed, out.Status)
	require.Len(t, store.commits, 1)
	assert.Nil(t, store.commits[0].sentAt)
}
