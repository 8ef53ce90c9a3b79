package newsletter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// Level classifies the outcome of one campaign send attempt for the operator.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Outcome is the complete report of one send attempt. The orchestrator never
// returns an error: every result, including fatal ones, is expressed here so
// callers (admin action, CLI, timer) report without exception handling.
type Outcome struct {
	CampaignID      uuid.UUID             `json:"campaign_id"`
	Title           string                `json:"title"`
	Status          models.CampaignStatus `json:"status"`
	TotalRecipients int                   `json:"total_recipients"`
	SentCount       int                   `json:"sent_count"`
	FailedCount     int                   `json:"failed_count"`
	Level           Level                 `json:"level"`
	Message         string                `json:"message"`
}

// SubscriberSource lists active recipients in stable listing order.
type SubscriberSource interface {
	ListActive(ctx context.Context) ([]models.Subscriber, error)
}

// CampaignStore persists campaign state transitions. MarkSending is the claim
// write: it must only succeed while the campaign is not already sending or
// sent, so overlapping triggers degrade to a warning instead of a double send.
type CampaignStore interface {
	MarkSending(ctx context.Context, id uuid.UUID, total int) (claimed bool, err error)
	CommitResult(ctx context.Context, id uuid.UUID, status models.CampaignStatus, total, sent, failed int, sentAt *time.Time) error
}

// AuditLog appends campaign send events. Entries are strictly ordered within
// one attempt and never mutated.
type AuditLog interface {
	Append(ctx context.Context, entry *models.CampaignLog) error
}

// SettingsSource resolves the site settings record (branding + SMTP).
type SettingsSource interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// BodyRenderer renders the per-recipient email bodies.
type BodyRenderer interface {
	Render(c *models.Campaign, sub *models.Subscriber, st *models.SiteSettings) (html, text string, err error)
}

// Orchestrator runs one campaign send attempt end to end: claim, fan out over
// active subscribers on a single SMTP session, tally outcomes, resolve the
// terminal state. Recipient iteration is strictly sequential and one
// recipient's failure never aborts the batch.
type Orchestrator struct {
	subscribers SubscriberSource
	campaigns   CampaignStore
	audit       AuditLog
	settings    SettingsSource
	dialer      Dialer
	renderer    BodyRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrchestrator wires a send orchestrator.
func NewOrchestrator(subs SubscriberSource, campaigns CampaignStore, audit AuditLog, settings SettingsSource, dialer Dialer, renderer BodyRenderer, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		subscribers: subs,
		campaigns:   campaigns,
		audit:       audit,
		settings:    settings,
		dialer:      dialer,
		renderer:    renderer,
		logger:      logger,
		now:         time.Now,
	}
}

// Send executes one send attempt for the campaign. Counters accumulate
// locally and are committed once after the loop; the only mid-run write is
// the sending claim.
func (o *Orchestrator) Send(ctx context.Context, c *models.Campaign) Outcome {
	if c.Status == models.CampaignSent || c.Status == models.CampaignSending {
		o.logger.Warn("campaign already sent or sending, skipping",
			zap.String("campaign_id", c.ID.String()), zap.String("status", string(c.Status)))
		return Outcome{
			CampaignID: c.ID,
			Title:      c.Title,
			Status:     c.Status,
			Level:      LevelWarning,
			Message:    fmt.Sprintf("campaign is already %s, not sent again", c.Status),
		}
	}

	o.log(ctx, c.ID, models.LogInfo, fmt.Sprintf("starting send of campaign %q", c.Title), "", "")

	subs, err := o.subscribers.ListActive(ctx)
	if err != nil {
		return o.fail(ctx, c, 0, "could not load subscribers", err.Error())
	}
	total := len(subs)
	if total == 0 {
		return o.fail(ctx, c, 0, "no active subscribers, nothing to send", "")
	}

	claimed, err := o.campaigns.MarkSending(ctx, c.ID, total)
	if err != nil {
		return o.fail(ctx, c, total, "could not claim campaign for sending", err.Error())
	}
	if !claimed {
		o.logger.Warn("campaign claimed by a concurrent send", zap.String("campaign_id", c.ID.String()))
		return Outcome{
			CampaignID: c.ID,
			Title:      c.Title,
			Status:     models.CampaignSending,
			Level:      LevelWarning,
			Message:    "campaign is already being sent by another run",
		}
	}
	c.Status = models.CampaignSending
	c.TotalRecipients = total

	st, err := o.settings.Get(ctx)
	if err != nil || st == nil {
		detail := "site settings record not found"
		if err != nil {
			detail = err.Error()
		}
		return o.fail(ctx, c, total, "site settings unavailable, smtp configuration cannot be loaded", detail)
	}
	cfg := st.MailConfig()
	if verr := cfg.Validate(); verr != nil {
		return o.fail(ctx, c, total, "smtp settings are incomplete", verr.Error())
	}

	conn, err := o.dialer.Open(ctx, cfg)
	if err != nil {
		return o.fail(ctx, c, total,
			fmt.Sprintf("smtp connection to %s:%d failed", cfg.Host, cfg.Port), err.Error())
	}
	o.logger.Info("smtp connection established",
		zap.String("campaign_id", c.ID.String()), zap.String("host", cfg.Host), zap.Int("port", cfg.Port))

	var sent, failed int
	for i := range subs {
		sub := &subs[i]
		html, text, rerr := o.renderer.Render(c, sub, st)
		if rerr != nil {
			failed++
			o.log(ctx, c.ID, models.LogError, "failed to render email", sub.Email, rerr.Error())
			continue
		}
		msg := Message{To: sub.Email, ToName: sub.Name, Subject: c.Subject, HTML: html, Text: text}
		if serr := conn.Send(ctx, msg); serr != nil {
			failed++
			o.log(ctx, c.ID, models.LogError, "failed to send email", sub.Email, serr.Error())
			continue
		}
		sent++
		o.log(ctx, c.ID, models.LogSuccess, "email sent", sub.Email, "")
	}

	if cerr := conn.Close(); cerr != nil {
		o.logger.Warn("smtp close failed", zap.String("campaign_id", c.ID.String()), zap.Error(cerr))
	}

	sentAt := o.now()
	var status models.CampaignStatus
	var level Level
	var message string
	switch {
	case sent == 0:
		status = models.CampaignFailed
		level = LevelError
		message = fmt.Sprintf("no emails delivered (%d of %d failed)", failed, total)
		o.log(ctx, c.ID, models.LogError, message, "", "")
	case failed == 0:
		status = models.CampaignSent
		level = LevelSuccess
		message = fmt.Sprintf("all %d emails delivered", sent)
		o.log(ctx, c.ID, models.LogSuccess, message, "", "")
	default:
		status = models.CampaignSent
		level = LevelWarning
		message = fmt.Sprintf("%d of %d emails delivered, %d failed", sent, total, failed)
		o.log(ctx, c.ID, models.LogWarning, message, "", "")
	}

	if err := o.campaigns.CommitResult(ctx, c.ID, status, total, sent, failed, &sentAt); err != nil {
		o.logger.Error("commit campaign result failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
	}
	c.Status = status
	c.SentAt = &sentAt
	c.TotalRecipients = total
	c.SentCount = sent
	c.FailedCount = failed

	return Outcome{
		CampaignID:      c.ID,
		Title:           c.Title,
		Status:          status,
		TotalRecipients: total,
		SentCount:       sent,
		FailedCount:     failed,
		Level:           level,
		Message:         message,
	}
}

// fail records a fatal pre-send condition: error log entry, terminal failed
// state, no partial sends.
func (o *Orchestrator) fail(ctx context.Context, c *models.Campaign, total int, message, detail string) Outcome {
	o.log(ctx, c.ID, models.LogError, message, "", detail)
	if err := o.campaigns.CommitResult(ctx, c.ID, models.CampaignFailed, total, 0, 0, nil); err != nil {
		o.logger.Error("commit failed campaign state failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
	}
	c.Status = models.CampaignFailed
	c.TotalRecipients = total
	c.SentCount = 0
	c.FailedCount = 0
	return Outcome{
		CampaignID:      c.ID,
		Title:           c.Title,
		Status:          models.CampaignFailed,
		TotalRecipients: total,
		Level:           LevelError,
		Message:         message,
	}
}

func (o *Orchestrator) log(ctx context.Context, campaignID uuid.UUID, level models.LogLevel, message, email, detail string) {
	entry := &models.CampaignLog{
		CampaignID:      campaignID,
		Level:           level,
		Message:         message,
		SubscriberEmail: email,
		ErrorDetails:    detail,
	}
	if err := o.audit.Append(ctx, entry); err != nil {
		o.logger.Error("append campaign log failed", zap.String("campaign_id", campaignID.String()), zap.Error(err))
	}
}
