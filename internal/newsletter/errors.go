package newsletter

import "errors"

// ErrSubscriberNotFound is returned when an unsubscribe token matches no subscriber.
var ErrSubscriberNotFound = errors.New("subscriber not found")

// ConfigError means the mail configuration is missing or incomplete. It is a
// pre-send failure: no connection attempt was made and no partial sends occurred.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "mail config: " + e.Reason
}

// ConnectError means the SMTP transport could not establish a session
// (network, auth or TLS negotiation failure). Like ConfigError it is fatal
// for the whole attempt.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return "smtp connect: " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
