package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_discord_notify = "discord.notify"
)

var ErrWebhookRejected = errors.New("webhook rejected the message")

type embedAuthor struct {
	Name string `json:"name"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Author      embedAuthor `json:"author"`
	Image       *embedImage `json:"image,omitempty"`
	Footer      embedFooter `json:"footer"`
	Timestamp   string      `json:"timestamp"`
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type DiscordOptions struct {
	WebhookURL string
	Username   string
	Timeout    time.Duration
}

// Discord posts one embed per notification to a webhook.
type Discord struct {
	http     *resty.Client
	webhook  string
	username string
	tel      telemetry.API
}

// NewDiscord returns nil when no webhook is configured.
func NewDiscord(options DiscordOptions, tel telemetry.API) *Discord {
	assert.NotNil(tel)
	if options.WebhookURL == "" {
		return nil
	}
	if options.Timeout <= 0 {
		options.Timeout = time.Second * 30
	}
	tel = telemetry.NewScopedAPI("notify", tel)

	client := resty.New()
	client.SetTimeout(options.Timeout)
	telemetry.InstrumentResty(client, tel)

	return &Discord{
		http:     client,
		webhook:  options.WebhookURL,
		username: options.Username,
		tel:      tel,
	}
}

func buildEmbed(n Notification) embed {
	e := embed{
		Title:       fmt.Sprintf("`%s`", n.Code.Code),
		Description: describe(n.Code, func(s string) string { return "**" + s + "**" }),
		Color:       n.Game.Color,
		Author:      embedAuthor{Name: n.Game.Name},
		Footer:      embedFooter{Text: "Hoyo Code"},
		Timestamp:   n.At.In(chrono.ReportingZone).Format(time.RFC3339),
	}
	if n.Game.Image != "" {
		e.Image = &embedImage{URL: n.Game.Image}
	}
	return e
}

func (d *Discord) Notify(ctx context.Context, n Notification) error {
	payload := webhookPayload{
		Username: d.username,
		Embeds:   []embed{buildEmbed(n)},
	}

	res, err := d.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(d.webhook)
	if err != nil {
		d.tel.ReportBroken(report_discord_notify, err, n.Game.ID, n.Code.Code)
		return fmt.Errorf("discord: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("discord: %w: %s", ErrWebhookRejected, res.Status())
		d.tel.ReportBroken(report_discord_notify, err, n.Game.ID, n.Code.Code, res.String())
		return err
	}
	return nil
}
