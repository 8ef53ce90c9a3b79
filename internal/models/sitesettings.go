package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SiteSettings is the single site-wide configuration record: branding,
// contact info, signup popup, and outgoing SMTP. The repository enforces
// that at most one row exists.
type SiteSettings struct {
	ID           uuid.UUID `json:"id"`
	SiteName     string    `json:"site_name"`
	LogoKey      string    `json:"logo_key,omitempty"` // S3 object key, resolved to an absolute URL before use
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	WorkingHours string    `json:"working_hours,omitempty"`

	// Newsletter signup popup.
	PopupEnabled      bool   `json:"popup_enabled"`
	PopupTitle        string `json:"popup_title,omitempty"`
	PopupDescription  string `json:"popup_description,omitempty"`
	PopupDelaySeconds int    `json:"popup_delay_seconds"`

	// Outgoing mail. Password is never serialized.
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"`
	SMTPUseTLS   bool   `json:"smtp_use_tls"`
	EmailFrom    string `json:"email_from"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MailConfig is the SMTP configuration slice of the settings record, passed
// explicitly into the send pipeline rather than read as ambient state.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	FromName string
}

// MailConfig extracts the SMTP configuration, falling back to the site
// contact address when no dedicated from-address is set.
func (s *SiteSettings) MailConfig() MailConfig {
	from := s.EmailFrom
	if from == "" {
		from = s.Email
	}
	port := s.SMTPPort
	if port == 0 {
		port = 587
	}
	return MailConfig{
		Host:     s.SMTPHost,
		Port:     port,
		Username: s.SMTPUsername,
		Password: s.SMTPPassword,
		UseTLS:   s.SMTPUseTLS,
		From:     from,
		FromName: s.SiteName,
	}
}

// Validate reports whether the configuration is complete enough to attempt a
// send. Host and username are hard preconditions; their absence must be
// distinguishable from a transport failure.
func (c MailConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	if c.Username == "" {
		return fmt.Errorf("smtp username is not configured")
	}
	return nil
}
