package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
	"github.com/yukikurage/tripmate-api/internal/config"
	"github.com/yukikurage/tripmate-api/internal/constants"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates an SMTPMailer from the SMTP settings in cfg.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

// SendPasswordReset emails the one-time reset code to the given address.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	msg, err := passwordResetMessage(m.from, to, code)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}

	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func passwordResetMessage(from, to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("TripMate password reset code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your TripMate password reset code is %s.\n\nIt expires in %d minutes. If you did not request a reset you can ignore this email.\n",
		code, int(constants.OTPTTL.Minutes()),
	))
	return msg, nil
}

// LogMailer writes reset codes to the log instead of sending mail. It is
// used when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	m.logger.InfoContext(ctx, "password reset code issued", "to", to, "code", code)
	return nil
}
