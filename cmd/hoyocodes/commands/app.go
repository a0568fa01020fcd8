package commands

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/config"
	"hoyocodes/internal/games"
	"hoyocodes/internal/history"
	"hoyocodes/internal/job"
	"hoyocodes/internal/notify"
	"hoyocodes/internal/snapshot"
	"hoyocodes/internal/wiki"
	"hoyocodes/lib/restyutil"
)

// app holds everything a command needs to run jobs, close must be called once
// the command is done.
type app struct {
	cfg     config.Config
	tel     telemetry.API
	clock   chrono.API
	store   snapshot.Store
	history *history.Store
	dump    restyutil.InstrumentOutput

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	tel := telemetry.SlogAPI{}
	a := &app{
		cfg:   cfg,
		tel:   tel,
		clock: chrono.NewStandardImpl(),
		store: snapshot.NewStore(cfg.OutputDir, tel),
	}

	otlp, err := telemetry.Setup(ctx, "hoyocodes", cfg.Otlp)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, otlp.Shutdown)

	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.dump = output
	}

	if cfg.History.File != "" {
		database, err := openHistory(ctx, cfg)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			return database.Close()
		})
		store := history.NewStore(database)
		a.history = &store
	}

	return a, nil
}

func openHistory(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	database, err := cfg.History.OpenDB()
	if err != nil {
		return nil, err
	}
	err = history.NewStore(database).Migrate(ctx)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func (a *app) close(ctx context.Context) {
	errlist := []error{}
	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i](context.WithoutCancel(ctx))
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if err := errors.Join(errlist...); err != nil {
		slog.Warn("failed to shut down cleanly", "err", err.Error())
	}
}

func (a *app) notifier() notify.Notifier {
	list := []notify.Notifier{}
	if discord := notify.NewDiscord(a.cfg.DiscordOptions(), a.tel); discord != nil {
		list = append(list, discord)
	}
	if mailer := notify.NewEmail(a.cfg.Email, a.tel); mailer != nil {
		list = append(list, mailer)
	}
	return notify.Combine(list...)
}

func (a *app) jobs(selected []games.Game) ([]job.Job, error) {
	options := a.cfg.FetcherOptions()
	options.Dump = a.dump
	fetcher := wiki.NewFetcher(options, a.tel)
	normalizer := codes.NewNormalizer(a.tel)
	notifier := a.notifier()
	if notifier == nil {
		slog.Info("no webhook or smtp host configured, notifications are disabled")
	}

	var recorder job.HistoryRecorder
	if a.history != nil {
		recorder = a.history
	}

	out := []job.Job{}
	for _, game := range selected {
		source, err := games.NewSource(game, a.cfg.WikiBaseURLs, normalizer)
		if err != nil {
			return nil, err
		}
		out = append(out, job.NewJob(job.Options{
			Source:      source,
			Fetcher:     fetcher,
			Store:       a.store,
			Notifier:    notifier,
			History:     recorder,
			NotifyDelay: a.cfg.NotifyDelay(),
			Time:        a.clock,
		}, a.tel))
	}
	return out, nil
}
