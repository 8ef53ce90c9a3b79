package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/newsletter"
	"github.com/ufukcicekdev/RealInvest/pkg/queue"
)

// EmailProcessor processes contact notification jobs: renders a short
// notification email and sends it to the site operator over SMTP.
type EmailProcessor struct {
	settings newsletter.SettingsSource
	dialer   newsletter.Dialer
	queue    *queue.Queue
	backoff  time.Duration
	logger   *zap.Logger
}

// NewEmailProcessor creates a contact notification processor.
func NewEmailProcessor(src newsletter.SettingsSource, dialer newsletter.Dialer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{settings: src, dialer: dialer, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one contact notification job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeContactNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ContactNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	cfg, err := p.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cfg == nil || cfg.Email == "" {
		p.logger.Warn("no operator email configured, dropping notification",
			zap.String("message_id", payload.MessageID.String()))
		return nil
	}
	mailCfg := cfg.MailConfig()
	if err := mailCfg.Validate(); err != nil {
		return fmt.Errorf("smtp settings: %w", err)
	}

	conn, err := p.dialer.Open(ctx, mailCfg)
	if err != nil {
		return fmt.Errorf("smtp open: %w", err)
	}
	defer conn.Close()

	subject := payload.Subject
	if subject == "" {
		subject = "New contact form message"
	}
	msg := newsletter.Message{
		To:      cfg.Email,
		ToName:  cfg.SiteName,
		Subject: "[Contact] " + subject,
		HTML:    notificationHTML(payload),
		Text: fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s",
			payload.Name, payload.Email, payload.Phone, payload.Message),
	}
	if err := conn.Send(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	p.logger.Info("contact notification sent",
		zap.String("message_id", payload.MessageID.String()), zap.String("to", cfg.Email))
	return nil
}

func notificationHTML(p queue.ContactNotificationPayload) string {
	return fmt.Sprintf(
		`<h3>New contact form message</h3>
<p><strong>From:</strong> %s &lt;%s&gt;<br><strong>Phone:</strong> %s</p>
<p>%s</p>`,
		html.EscapeString(p.Name), html.EscapeString(p.Email),
		html.EscapeString(p.Phone), html.EscapeString(p.Message))
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("email worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.Error(err), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			if rerr := p.queue.Retry(ctx, job); rerr != nil {
				p.logger.Error("retry failed", zap.Error(rerr), zap.String("job_id", job.ID))
			}
			// space the retries out so a flapping SMTP host is not hammered
			select {
			case <-ctx.Done():
			case <-time.After(p.backoff):
			}
			continue
		}
	}
}
