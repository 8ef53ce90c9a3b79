package newsletter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

func TestOpenRejectsIncompleteConfig(t *testing.T) {
	d := NewSMTPDialer()

	for name, cfg := range map[string]models.MailConfig{
		"missing host":     {Username: "u", Port: 587},
		"missing username": {Host: "smtp.example.com", Port: 587},
		"empty":            {},
	} {
		_, err := d.Open(context.Background(), cfg)
		require.Error(t, err, name)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr), name)
	}
}

func TestMailConfigDefaults(t *testing.T) {
	s := &models.SiteSettings{
		SiteName:     "RealInvest",
		Email:        "info@realinvest.example",
		SMTPHost:     "smtp.example.com",
		SMTPUsername: "mailer",
	}
	cfg := s.MailConfig()

	assert.Equal(t, 587, cfg.Port)
	// no dedicated from-address configured, the contact address is used
	assert.Equal(t, "info@realinvest.example", cfg.From)
	assert.Equal(t, "RealInvest", cfg.FromName)

	s.EmailFrom = "news@realinvest.example"
	s.SMTPPort = 465
	cfg = s.MailConfig()
	assert.Equal(t, 465, cfg.Port)
	assert.Equal(t, "news@realinvest.example", cfg.From)
}

func TestMailConfigValidate(t *testing.T) {
	assert.Error(t, models.MailConfig{}.Validate())
	assert.Error(t, models.MailConfig{Host: "h"}.Validate())
	assert.Error(t, models.MailConfig{Username: "u"}.Validate())
	assert.NoError(t, models.MailConfig{Host: "h", Username: "u"}.Validate())
}

func TestConnectErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := &ConnectError{Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "timeout")
}
