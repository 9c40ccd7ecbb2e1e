package mail

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/gomail.v2"

	appbilling "github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/pkg/logger"
)

// ModeSMTP modo con relay SMTP.
const ModeSMTP = "smtp"

// SMTPConfig datos de conexión del relay.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	FromName   string
	MaxRetries uint64
}

// sender abstrae gomail.Dialer para tests.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer entrega por SMTP con reintentos exponenciales ante fallos de conexión.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer sender
	log    *logger.Logger
}

// NewSMTPMailer crea el relay SMTP.
func NewSMTPMailer(cfg SMTPConfig, log *logger.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    log,
	}
}

var _ appbilling.Mailer = (*SMTPMailer)(nil)

// Mode devuelve ModeSMTP.
func (m *SMTPMailer) Mode() string { return ModeSMTP }

// Send construye el mensaje MIME y lo entrega.
func (m *SMTPMailer) Send(ctx context.Context, msg *appbilling.OutgoingMail) error {
	gm := buildMessage(m.cfg, msg)

	b := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), m.cfg.MaxRetries),
		ctx,
	)
	attempt := 0
	op := func() error {
		attempt++
		if err := m.dialer.DialAndSend(gm); err != nil {
			m.log.Warn().Err(err).Int("intento", attempt).Str("para", msg.To).Msg("smtp: envío fallido")
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func buildMessage(cfg SMTPConfig, msg *appbilling.OutgoingMail) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", cfg.From, cfg.FromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	for _, a := range msg.Attachments {
		content := a.Content
		gm.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}
	return gm
}
