package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/telemetry"

	"github.com/jordan-wright/email"
)

const (
	report_email_notify = "email.notify"
)

type SmtpConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type sendFunc func(addr string, auth smtp.Auth, mail *email.Email) error

func defaultSend(addr string, auth smtp.Auth, mail *email.Email) error {
	return mail.Send(addr, auth)
}

// Email sends one plain text mail per notification.
type Email struct {
	config SmtpConfig
	send   sendFunc
	tel    telemetry.API
}

// NewEmail returns nil when no smtp host or recipient is configured.
func NewEmail(config SmtpConfig, tel telemetry.API) *Email {
	assert.NotNil(tel)
	if config.Host == "" || len(config.To) == 0 {
		return nil
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &Email{
		config: config,
		send:   defaultSend,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

func (e *Email) message(n Notification) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Hoyo Code <%s>", e.config.From)
	mail.To = e.config.To
	mail.Subject = fmt.Sprintf("[%s] New code: %s", n.Game.Name, n.Code.Code)
	mail.Text = []byte(fmt.Sprintf(
		"%s\n\n%s\n",
		n.Code.Code,
		describe(n.Code, func(s string) string { return s }),
	))
	return mail
}

func (e *Email) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := e.message(n)
	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)

	var auth smtp.Auth
	if e.config.Username != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	}
	err := e.send(addr, auth, mail)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(addr, nil, mail)
	}
	if err != nil {
		e.tel.ReportBroken(report_email_notify, err, n.Game.ID, n.Code.Code)
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
