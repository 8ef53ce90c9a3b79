package newsletter

import (
	"context"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// Message is one rendered email ready for transport.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Conn is an open mail transport session. It is owned by exactly one send
// attempt: opened once, used for every recipient in that attempt, then closed.
type Conn interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Dialer opens mail transport sessions from site-wide SMTP configuration.
type Dialer interface {
	Open(ctx context.Context, cfg models.MailConfig) (Conn, error)
}

// SMTPDialer is the production Dialer backed by go-mail.
type SMTPDialer struct {
	timeout time.Duration
}

// NewSMTPDialer creates a dialer with a per-operation timeout.
func NewSMTPDialer() *SMTPDialer {
	return &SMTPDialer{timeout: 30 * time.Second}
}

// Open validates cfg and establishes an authenticated SMTP session.
// Incomplete configuration yields *ConfigError without any network call;
// dial or auth failures yield *ConnectError.
func (d *SMTPDialer) Open(ctx context.Context, cfg models.MailConfig) (Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	tlsPolicy := mail.TLSOpportunistic
	if cfg.UseTLS {
		tlsPolicy = mail.TLSMandatory
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithTimeout(d.timeout),
	)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, &ConnectError{Err: err}
	}
	return &smtpConn{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

type smtpConn struct {
	client   *mail.Client
	from     string
	fromName string
}

func (c *smtpConn) Send(ctx context.Context, m Message) error {
	msg := mail.NewMsg()
	if c.fromName != "" {
		if err := msg.FromFormat(c.fromName, c.from); err != nil {
			return err
		}
	} else {
		if err := msg.From(c.from); err != nil {
			return err
		}
	}
	var err error
	if m.ToName != "" {
		err = msg.AddToFormat(m.ToName, m.To)
	} else {
		err = msg.To(m.To)
	}
	if err != nil {
		return err
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	return c.client.Send(msg)
}

func (c *smtpConn) Close() error {
	return c.client.Close()
}
