package newsletter

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// Trigger discovers due campaigns and sends them. Both the in-process timer
// and the one-shot CLI go through this same contract so their behavior is
// identical regardless of which fired.
type Trigger interface {
	Trigger(ctx context.Context) ([]Outcome, error)
}

// DueCampaignSource lists scheduled campaigns whose scheduled time has elapsed.
type DueCampaignSource interface {
	ListDue(ctx context.Context, now time.Time) ([]models.Campaign, error)
}

// Runner is the shared trigger implementation: one due-campaign query, then
// the orchestrator on each campaign sequentially.
type Runner struct {
	due    DueCampaignSource
	orch   *Orchestrator
	logger *zap.Logger
	now    func() time.Time
}

// NewRunner creates a trigger runner.
func NewRunner(due DueCampaignSource, orch *Orchestrator, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{due: due, orch: orch, logger: logger, now: time.Now}
}

// Trigger finds due campaigns and runs a send attempt for each. The error
// return covers only the due query; individual campaign results are Outcomes.
func (r *Runner) Trigger(ctx context.Context) ([]Outcome, error) {
	campaigns, err := r.due.ListDue(ctx, r.now())
	if err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, len(campaigns))
	for i := range campaigns {
		out := r.orch.Send(ctx, &campaigns[i])
		r.logger.Info("campaign send attempt finished",
			zap.String("campaign_id", out.CampaignID.String()),
			zap.String("title", out.Title),
			zap.String("status", string(out.Status)),
			zap.String("level", string(out.Level)),
			zap.Int("sent", out.SentCount),
			zap.Int("failed", out.FailedCount),
		)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// tickTimeout bounds one scheduler tick; a stuck SMTP server must not pile up
// overlapping runs forever.
const tickTimeout = 10 * time.Minute

// Scheduler fires the trigger every minute from inside the serving process.
// Start is idempotent: the timer is started at most once per process lifetime.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a scheduler around the given trigger.
func NewScheduler(trigger Trigger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), trigger: trigger, logger: logger}
}

// Start begins the recurring one-minute check. Calling Start again is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Info("newsletter scheduler already running")
		return nil
	}
	_, err := s.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
		defer cancel()
		outcomes, err := s.trigger.Trigger(ctx)
		if err != nil {
			s.logger.Error("scheduled newsletter check failed", zap.Error(err))
			return
		}
		if len(outcomes) > 0 {
			s.logger.Info("scheduled newsletter check done", zap.Int("campaigns", len(outcomes)))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("newsletter scheduler started, checking every minute")
	return nil
}

// Stop halts the timer. Safe to call without a prior Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	s.logger.Info("newsletter scheduler stopped")
}
