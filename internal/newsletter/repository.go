package newsletter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// SubscriberRepository handles subscriber persistence.
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriberRepository creates a subscriber repository.
func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

const subscriberColumns = `id, email, name, phone, is_active, subscribed_at, unsubscribed_at, ip_address, unsubscribe_token`

func scanSubscriber(row pgx.Row) (*models.Subscriber, error) {
	var s models.Subscriber
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Phone, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt, &s.IPAddress, &s.UnsubscribeToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetByEmail returns the subscriber with the given email, or (nil, nil).
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	return scanSubscriber(r.pool.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email))
}

// GetByToken returns the subscriber holding the unsubscribe token, or (nil, nil).
func (r *SubscriberRepository) GetByToken(ctx context.Context, token string) (*models.Subscriber, error) {
	return scanSubscriber(r.pool.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE unsubscribe_token = $1`, token))
}

// Insert creates a subscriber row.
func (r *SubscriberRepository) Insert(ctx context.Context, s *models.Subscriber) error {
	const q = `INSERT INTO subscribers (id, email, name, phone, is_active, subscribed_at, ip_address, unsubscribe_token)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	return r.pool.QueryRow(ctx, q, s.Email, s.Name, s.Phone, s.IsActive, s.SubscribedAt, s.IPAddress, s.UnsubscribeToken).
		Scan(&s.ID)
}

// Update persists mutable subscriber fields. The email and token never change.
func (r *SubscriberRepository) Update(ctx context.Context, s *models.Subscriber) error {
	const q = `UPDATE subscribers
		SET name = $2, phone = $3, is_active = $4, subscribed_at = $5, unsubscribed_at = $6, ip_address = $7
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, s.ID, s.Name, s.Phone, s.IsActive, s.SubscribedAt, s.UnsubscribedAt, s.IPAddress)
	return err
}

// ListActive returns active subscribers in insertion order. The order carries
// no meaning but must be deterministic so audit logs are reproducible.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE is_active ORDER BY subscribed_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscribers(rows)
}

// List returns all subscribers, newest first, for the admin panel.
func (r *SubscriberRepository) List(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers ORDER BY subscribed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscribers(rows)
}

func collectSubscribers(rows pgx.Rows) ([]models.Subscriber, error) {
	var list []models.Subscriber
	for rows.Next() {
		var s models.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &s.Phone, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt, &s.IPAddress, &s.UnsubscribeToken); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CampaignRepository handles campaign persistence.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository creates a campaign repository.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

const campaignColumns = `id, title, subject, content, status, scheduled_at, sent_at, total_recipients, sent_count, failed_count, created_at, updated_at`

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.Title, &c.Subject, &c.Content, &c.Status, &c.ScheduledAt, &c.SentAt,
		&c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a campaign.
func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	const q = `INSERT INTO campaigns (id, title, subject, content, status, scheduled_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, c.Title, c.Subject, c.Content, c.Status, c.ScheduledAt).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID returns a campaign, or (nil, nil).
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

// List returns all campaigns, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.Subject, &c.Content, &c.Status, &c.ScheduledAt, &c.SentAt,
			&c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update persists operator-editable fields.
func (r *CampaignRepository) Update(ctx context.Context, c *models.Campaign) error {
	const q = `UPDATE campaigns
		SET title = $2, subject = $3, content = $4, status = $5, scheduled_at = $6, updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, c.ID, c.Title, c.Subject, c.Content, c.Status, c.ScheduledAt)
	return err
}

// Delete removes a campaign and, by cascade, its logs.
func (r *CampaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

// ListDue returns scheduled campaigns whose time has elapsed.
func (r *CampaignRepository) ListDue(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at, created_at`, models.CampaignScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.Subject, &c.Content, &c.Status, &c.ScheduledAt, &c.SentAt,
			&c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// MarkSending claims the campaign for one send attempt and resets its
// counters. The claim only succeeds while the campaign is not already sending
// or sent, so overlapping triggers cannot both run the loop.
func (r *CampaignRepository) MarkSending(ctx context.Context, id uuid.UUID, total int) (bool, error) {
	const q = `UPDATE campaigns
		SET status = $2, total_recipients = $3, sent_count = 0, failed_count = 0, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($4, $5)`
	tag, err := r.pool.Exec(ctx, q, id, models.CampaignSending, total,
		models.CampaignSending, models.CampaignSent)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CommitResult persists the terminal state and counters of one send attempt.
func (r *CampaignRepository) CommitResult(ctx context.Context, id uuid.UUID, status models.CampaignStatus, total, sent, failed int, sentAt *time.Time) error {
	const q = `UPDATE campaigns
		SET status = $2, total_recipients = $3, sent_count = $4, failed_count = $5, sent_at = COALESCE($6, sent_at), updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, status, total, sent, failed, sentAt)
	return err
}

// LogRepository handles the append-only campaign audit log.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository creates a campaign log repository.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Append inserts one audit entry.
func (r *LogRepository) Append(ctx context.Context, e *models.CampaignLog) error {
	const q = `INSERT INTO campaign_logs (id, campaign_id, level, message, subscriber_email, error_details)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, e.CampaignID, e.Level, e.Message, e.SubscriberEmail, e.ErrorDetails).
		Scan(&e.ID, &e.CreatedAt)
}

// ListByCampaign returns audit entries for a campaign in append order.
func (r *LogRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, campaign_id, level, message, subscriber_email, error_details, created_at
		FROM campaign_logs WHERE campaign_id = $1 ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.CampaignLog
	for rows.Next() {
		var e models.CampaignLog
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.Level, &e.Message, &e.SubscriberEmail, &e.ErrorDetails, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// DeleteByCampaign removes all audit entries for a campaign. This is the
// manual operator cleanup path; the subsystem itself never deletes entries.
func (r *LogRepository) DeleteByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaign_logs WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
