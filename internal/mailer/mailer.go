// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"gopkg.in/mail.v2"

	"github.com/example/vitecommerce/internal/logging"
	"github.com/example/vitecommerce/internal/metrics"
)

// Message is a single HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer sends a message or returns why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetHeader("From", m.cfg.From)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTMLBody)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(message) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("mail delivery temporarily unavailable")

// BreakerMailer stops calling the relay after consecutive failures and
// fails fast until the breaker half-opens again.
type BreakerMailer struct {
	next    Mailer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerMailer(next Mailer, failureThreshold uint32, openFor time.Duration) *BreakerMailer {
	settings := gobreaker.Settings{
		Name:    "smtp",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("mail circuit breaker state changed")
		},
	}
	return &BreakerMailer{next: next, breaker: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *BreakerMailer) Send(ctx context.Context, msg Message) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})

	switch {
	case err == nil:
		metrics.EmailsSent.WithLabelValues("sent").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EmailsSent.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		logging.Error().Err(err).Str("to", msg.To).Msg("failed to send email")
	}
	return err
}
