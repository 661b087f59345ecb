// Package notify delivers password reset links to account holders.
package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/wneessen/go-mail"
)

// Notifier sends a reset token to the owner of email.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// ResetLink builds the link a user follows to choose a new password.
func ResetLink(baseURL, token string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "?resetToken=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("resetToken", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// SMTPConfig describes the outbound relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	LinkBase string
}

const (
	resetSubject = "Reset your password"
	resetText    = "Reset your password by opening the link below. It expires in one hour.\r\n\r\n%s\r\n"
	resetHTML    = `<p>Reset your password by opening the link below. It expires in one hour.</p><p><a href="%[1]s">%[1]s</a></p>`
)

// SMTPNotifier mails reset links through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n
}

// SendPasswordReset mails a text/html alternative message carrying the reset link.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.resetMessage(email, ResetLink(n.cfg.LinkBase, token))
	if err != nil {
		return fmt.Errorf("build reset message: %w", err)
	}

	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) resetMessage(to, link string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(resetText, link))
	msg.AddAlternativeString(mail.TypeTextHTML, fmt.Sprintf(resetHTML, link))
	return msg, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.User),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}

func (n *SMTPNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogNotifier stands in when no relay is configured. It records that a reset
// was requested but never logs the token.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, _ string) error {
	n.log.Info(ctx, "password reset requested, no mail relay configured", "email", email)
	return nil
}
