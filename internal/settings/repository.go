package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// ErrAlreadyExists is returned when a second settings record would be created.
var ErrAlreadyExists = errors.New("site settings record already exists")

// Repository handles the site_settings singleton. The at-most-one invariant
// is enforced here, at creation time.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, site_name, logo_key, email, phone, address, working_hours,
	popup_enabled, popup_title, popup_description, popup_delay_seconds,
	smtp_host, smtp_port, smtp_username, smtp_password, smtp_use_tls, email_from,
	created_at, updated_at`

func scan(row pgx.Row) (*models.SiteSettings, error) {
	var s models.SiteSettings
	err := row.Scan(&s.ID, &s.SiteName, &s.LogoKey, &s.Email, &s.Phone, &s.Address, &s.WorkingHours,
		&s.PopupEnabled, &s.PopupTitle, &s.PopupDescription, &s.PopupDelaySeconds,
		&s.SMTPHost, &s.SMTPPort, &s.SMTPUsername, &s.SMTPPassword, &s.SMTPUseTLS, &s.EmailFrom,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Get returns the settings record, or (nil, nil) when none has been created yet.
func (r *Repository) Get(ctx context.Context) (*models.SiteSettings, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM site_settings LIMIT 1`))
}

// Create inserts the settings record. Fails with ErrAlreadyExists when one is
// already present.
func (r *Repository) Create(ctx context.Context, s *models.SiteSettings) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM site_settings`).Scan(&count); err != nil {
		return fmt.Errorf("count site settings: %w", err)
	}
	if count > 0 {
		return ErrAlreadyExists
	}
	const q = `INSERT INTO site_settings
		(id, site_name, logo_key, email, phone, address, working_hours,
		 popup_enabled, popup_title, popup_description, popup_delay_seconds,
		 smtp_host, smtp_port, smtp_username, smtp_password, smtp_use_tls, email_from)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		s.SiteName, s.LogoKey, s.Email, s.Phone, s.Address, s.WorkingHours,
		s.PopupEnabled, s.PopupTitle, s.PopupDescription, s.PopupDelaySeconds,
		s.SMTPHost, s.SMTPPort, s.SMTPUsername, s.SMTPPassword, s.SMTPUseTLS, s.EmailFrom,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update persists changes to the existing settings record.
func (r *Repository) Update(ctx context.Context, s *models.SiteSettings) error {
	const q = `UPDATE site_settings SET
		site_name = $2, logo_key = $3, email = $4, phone = $5, address = $6, working_hours = $7,
		popup_enabled = $8, popup_title = $9, popup_description = $10, popup_delay_seconds = $11,
		smtp_host = $12, smtp_port = $13, smtp_username = $14, smtp_password = $15, smtp_use_tls = $16, email_from = $17,
		updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, s.ID,
		s.SiteName, s.LogoKey, s.Email, s.Phone, s.Address, s.WorkingHours,
		s.PopupEnabled, s.PopupTitle, s.PopupDescription, s.PopupDelaySeconds,
		s.SMTPHost, s.SMTPPort, s.SMTPUsername, s.SMTPPassword, s.SMTPUseTLS, s.EmailFrom)
	return err
}
