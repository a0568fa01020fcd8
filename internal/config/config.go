package config

import (
	"fmt"
	"time"

	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/games"
	"hoyocodes/internal/notify"
	"hoyocodes/internal/wiki"
	"hoyocodes/lib/configutil"
	configlibsql "hoyocodes/lib/configutil/libsql"
)

const DefaultPath = "hoyocodes.json5"

type Discord struct {
	WebhookURL string `json:"webhook_url"`
	Username   string `json:"username"`
}

type Config struct {
	// OutputDir holds one folder per game.
	OutputDir string   `json:"output_dir"`
	Games     []string `json:"games"`

	UserAgent             string  `json:"user_agent"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	CloudflareBypass      *bool   `json:"cloudflare_bypass"`
	// WikiBaseURLs overrides the wiki host per game id.
	WikiBaseURLs map[string]string `json:"wiki_base_urls"`

	Discord       Discord           `json:"discord"`
	NotifyDelayMs int               `json:"notify_delay_ms"`
	Email         notify.SmtpConfig `json:"email"`
	// GameImages overrides the notification image per game id, an empty
	// string removes the image.
	GameImages map[string]string `json:"game_images"`

	// History is disabled when History.File is empty.
	History configlibsql.Struct `json:"history"`

	WatchCron string               `json:"watch_cron"`
	Otlp      telemetry.OtlpConfig `json:"otlp"`
}

func Defaults() Config {
	bypass := true
	return Config{
		OutputDir:             ".",
		Games:                 games.IDs(),
		UserAgent:             wiki.DefaultUserAgent,
		RequestTimeoutSeconds: 30,
		RequestsPerSecond:     2,
		CloudflareBypass:      &bypass,
		NotifyDelayMs:         1000,
		WatchCron:             "0 */6 * * *",
	}
}

// Load reads path (and its .local override), fills unset fields from Defaults
// and applies environment overrides. A missing file is not an error.
func Load(path string, getenv func(string) string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := configutil.ReadWithDefaults(path, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg, getenv)

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if webhook := getenv("DC_WH"); webhook != "" {
		cfg.Discord.WebhookURL = webhook
	}
	if webhook := getenv("DISCORD_WEBHOOK_URL"); webhook != "" {
		cfg.Discord.WebhookURL = webhook
	}
	if dir := getenv("HOYOCODES_OUTPUT_DIR"); dir != "" {
		cfg.OutputDir = dir
	}
	if db := getenv("HOYOCODES_HISTORY_DB"); db != "" {
		cfg.History.File = db
	}
}

func (c Config) Validate() error {
	_, err := games.ResolveAll(c.Games)
	if err != nil {
		return fmt.Errorf("config: games: %w", err)
	}
	err = chrono.ValidateSpec(c.WatchCron)
	if err != nil {
		return fmt.Errorf("config: watch_cron: %w", err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir must not be empty")
	}
	return nil
}

// EnabledGames returns the configured games with image overrides applied,
// only limits the selection when non empty.
func (c Config) EnabledGames(only []string) ([]games.Game, error) {
	selection := c.Games
	if len(only) > 0 {
		selection = only
	}
	list, err := games.ResolveAll(selection)
	if err != nil {
		return nil, err
	}
	return games.WithImages(list, c.GameImages), nil
}

func (c Config) FetcherOptions() wiki.FetcherOptions {
	return wiki.FetcherOptions{
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.RequestTimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass == nil || *c.CloudflareBypass,
	}
}

func (c Config) DiscordOptions() notify.DiscordOptions {
	return notify.DiscordOptions{
		WebhookURL: c.Discord.WebhookURL,
		Username:   c.Discord.Username,
		Timeout:    time.Duration(c.RequestTimeoutSeconds) * time.Second,
	}
}

func (c Config) NotifyDelay() time.Duration {
	if c.NotifyDelayMs < 0 {
		return 0
	}
	return time.Duration(c.NotifyDelayMs) * time.Millisecond
}
