package email

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

//go:embed template.html
var defaultTemplate string

// Config holds the SMTP account. Username doubles as the sender address
// unless From is set.
type Config struct {
	Host     string `mapstructure:"host" validate:"required,hostname|ip"`
	Port     int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	SSL      bool   `mapstructure:"ssl"`
}

// Sender is the part of gomail.Dialer the mailer uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	cfg    Config
	sender Sender
	tmpl   *template.Template
	logger ports.Logger
}

type Option func(*Mailer)

func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

// WithTemplate replaces the built-in body template.
func WithTemplate(t *template.Template) Option {
	return func(m *Mailer) { m.tmpl = t }
}

func NewMailer(cfg Config, logger ports.Logger, opts ...Option) (*Mailer, error) {
	tmpl, err := template.New("alarm").Parse(defaultTemplate)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTemplateRender, "failed to parse mail template")
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.SSL

	m := &Mailer{
		cfg:    cfg,
		sender: dialer,
		tmpl:   tmpl,
		logger: logger.WithFields(map[string]any{"component": "email"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

var _ ports.Mailer = (*Mailer)(nil)

// Render produces the HTML body. Newlines are dropped so mail clients do not
// insert stray breaks.
func (m *Mailer) Render(mail domain.OwnerMail) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, mail); err != nil {
		return "", errors.Wrap(err, errors.CodeTemplateRender, "failed to render mail body")
	}
	return strings.ReplaceAll(buf.String(), "\n", ""), nil
}

func (m *Mailer) Send(ctx context.Context, mail domain.OwnerMail) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "mail not sent")
	}
	body, err := m.Render(mail)
	if err != nil {
		return err
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", mail.Recipient)
	if len(mail.CC) > 0 {
		msg.SetHeader("Cc", mail.CC...)
	}
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return errors.Wrapf(err, errors.CodeNotificationFailed, "failed to send mail to %s", mail.Recipient)
	}
	m.logger.Debugf(ctx, "Sent %q to %s (cc %d)", mail.Subject, mail.Recipient, len(mail.CC))
	return nil
}
