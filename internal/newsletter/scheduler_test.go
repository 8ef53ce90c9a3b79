package newsletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

type fakeDue struct {
	campaigns []models.Campaign
	err       error
	gotNow    time.Time
}

func (f *fakeDue) ListDue(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	f.gotNow = now
	return f.campaigns, f.err
}

func TestRunnerTriggerSendsEachDueCampaign(t *testing.T) {
	due := &fakeDue{campaigns: []models.Campaign{
		{ID: uuid.New(), Title: "first", Status: models.CampaignScheduled},
		{ID: uuid.New(), Title: "second", Status: models.CampaignScheduled},
	}}
	conn := &fakeConn{}
	orch := newTestOrchestrator(
		&fakeSubscribers{subs: threeSubscribers()},
		&fakeCampaignStore{},
		&fakeAudit{},
		&fakeSettings{settings: validSettings()},
		&fakeDialer{conn: conn},
	)
	runner := NewRunner(due, orch, nil)

	outcomes, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "first", outcomes[0].Title)
	assert.Equal(t, "second", outcomes[1].Title)
	assert.Equal(t, models.CampaignSent, outcomes[0].Status)
	// both campaigns fanned out over all three subscribers
	assert.Len(t, conn.sent, 6)
	assert.False(t, due.gotNow.IsZero())
}

func TestRunnerTriggerNothingDue(t *testing.T) {
	runner := NewRunner(&fakeDue{}, newTestOrchestrator(&fakeSubscribers{}, &fakeCampaignStore{}, &fakeAudit{}, &fakeSettings{}, &fakeDialer{}), nil)

	outcomes, err := runner.Trigger(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRunnerTriggerQueryError(t *testing.T) {
	runner := NewRunner(&fakeDue{err: errors.New("db down")}, nil, nil)

	_, err := runner.Trigger(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestRunnerContinuesAfterFailedCampaign(t *testing.T) {
	due := &fakeDue{campaigns: []models.Campaign{
		{ID: uuid.New(), Title: "broken", Status: models.CampaignScheduled},
		{ID: uuid.New(), Title: "fine", Status: models.CampaignSent}, // skip path
	}}
	orch := newTestOrchestrator(&fakeSubscribers{}, &fakeCampaignStore{}, &fakeAudit{}, &fakeSettings{settings: validSettings()}, &fakeDialer{conn: &fakeConn{}})
	runner := NewRunner(due, orch, nil)

	outcomes, err := runner.Trigger(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, LevelError, outcomes[0].Level)
	assert.Equal(t, LevelWarning, outcomes[1].Level)
}

type countingTrigger struct {
	calls int
}

func (c *countingTrigger) Trigger(ctx context.Context) ([]Outcome, error) {
	c.calls++
	return nil, nil
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingTrigger{}, nil)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	// Stop without a running timer is a no-op
	s.Stop()
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(&countingTrigger{}, nil)
	s.Stop()
}
