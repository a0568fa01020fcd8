package job

import (
	"context"
	"fmt"
	"time"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/games"
	"hoyocodes/internal/notify"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_job_run     = "job.run"
	report_job_notify  = "job.notify"
	report_job_history = "job.history"
	report_codes_found = "codes.found"
	report_codes_new   = "codes.new"
)

var (
	tracer = otel.Tracer("hoyocodes.internal.job")
	meter  = otel.Meter("hoyocodes.internal.job")

	codesFound, _ = meter.Int64Counter("hoyocodes.codes.found")
	codesNew, _   = meter.Int64Counter("hoyocodes.codes.new")
)

type DocumentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

type SnapshotStore interface {
	ReadActiveCodes(game string) map[string]struct{}
	Write(game string, all []codes.Code) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, game string, list []codes.Code, seen time.Time) error
}

type Options struct {
	Source  games.Source
	Fetcher DocumentFetcher
	Store   SnapshotStore
	// Notifier may be nil, new codes are then only persisted.
	Notifier notify.Notifier
	// History may be nil.
	History     HistoryRecorder
	NotifyDelay time.Duration
	Time        chrono.API
}

// Result summarizes one run of a Job.
type Result struct {
	Game     games.Game
	Total    int
	Active   int
	Expired  int
	New      int
	NewCodes []codes.Code
	// Stages lists every stage the run entered, in order.
	Stages []Stage
	// FailedAt is the stage that failed, only meaningful when Err is set.
	FailedAt Stage
	Err      error
}

func (r Result) Stage() Stage {
	if len(r.Stages) == 0 {
		return StageIdle
	}
	return r.Stages[len(r.Stages)-1]
}

// Job scrapes, persists and announces the codes of a single game.
type Job struct {
	options Options
	tel     telemetry.API
}

func NewJob(options Options, tel telemetry.API) Job {
	assert.NotNil(options.Source)
	assert.NotNil(options.Fetcher)
	assert.NotNil(options.Store)
	assert.NotNil(options.Time)
	assert.NotNil(tel)

	return Job{
		options: options,
		tel:     telemetry.NewScopedAPI(fmt.Sprintf("job.%s", options.Source.Game().ID), tel),
	}
}

func (j Job) Game() games.Game {
	return j.options.Source.Game()
}

// Diff returns the codes of active whose code string is not in previous,
// preserving order.
func Diff(previous map[string]struct{}, active []codes.Code) []codes.Code {
	out := []codes.Code{}
	for _, c := range active {
		if _, ok := previous[c.Code]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

type run struct {
	result *Result
	span   trace.Span
}

func (r run) enter(s Stage) {
	r.result.Stages = append(r.result.Stages, s)
	r.span.AddEvent(s.String())
}

func (r run) fail(err error) Result {
	r.result.FailedAt = r.result.Stage()
	r.result.Err = err
	r.enter(StageFailed)
	r.span.RecordError(err)
	r.span.SetStatus(otelcodes.Error, fmt.Sprintf("failed while %s", r.result.FailedAt))
	return *r.result
}

// Run executes every stage in order. A failure of any stage ends the run in
// StageFailed with Err set, it is never returned separately so that callers
// can treat a Job as a unit that always completes. A panic inside a stage is
// turned into a failure of that stage.
func (j Job) Run(ctx context.Context) (out Result) {
	game := j.Game()
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("game", string(game.ID)),
	))
	defer span.End()

	result := &Result{Game: game, Stages: []Stage{StageIdle}}
	r := run{result: result, span: span}
	defer func() {
		if recovered := recover(); recovered != nil {
			err := panicError{value: recovered}
			j.tel.ReportBroken(report_job_run, err, result.Stage().String())
			out = r.fail(err)
		}
	}()
	now := j.options.Time.Now().In(j.options.Time.Location())

	r.enter(StageFetching)
	pages := j.options.Source.Pages()
	docs := make([]*goquery.Document, len(pages))
	for i, page := range pages {
		doc, err := j.options.Fetcher.Document(ctx, page.URL)
		if err != nil {
			j.tel.ReportBroken(report_job_run, err, StageFetching.String())
			return r.fail(err)
		}
		docs[i] = doc
	}

	r.enter(StageParsing)
	all := []codes.Code{}
	for i, page := range pages {
		all = append(all, j.options.Source.Parse(docs[i], page, now)...)
	}
	active, expired := codes.Split(all)
	result.Total = len(all)
	result.Active = len(active)
	result.Expired = len(expired)

	r.enter(StageDiffing)
	previous := j.options.Store.ReadActiveCodes(string(game.ID))
	result.NewCodes = Diff(previous, active)
	result.New = len(result.NewCodes)

	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	r.enter(StagePersisting)
	err := j.options.Store.Write(string(game.ID), all)
	if err != nil {
		j.tel.ReportBroken(report_job_run, err, StagePersisting.String())
		return r.fail(fmt.Errorf("persist: %w", err))
	}

	attrs := metric.WithAttributes(attribute.String("game", string(game.ID)))
	codesFound.Add(ctx, int64(result.Total), attrs)
	codesNew.Add(ctx, int64(result.New), attrs)
	j.tel.ReportCount(report_codes_found, int64(result.Total))
	j.tel.ReportCount(report_codes_new, int64(result.New))

	r.enter(StageNotifying)
	delivered, err := j.notify(ctx, now, result.NewCodes)
	if j.options.History != nil && len(delivered) > 0 {
		historyErr := j.options.History.Record(context.WithoutCancel(ctx), string(game.ID), delivered, now)
		if historyErr != nil {
			j.tel.ReportWarning(report_job_history, historyErr)
		}
	}
	if err != nil {
		return r.fail(err)
	}

	r.enter(StageDone)
	return *result
}

// notify announces every code, waiting NotifyDelay between two consecutive
// notifications. Failed deliveries are reported and skipped, only a cancelled
// ctx stops the loop early.
func (j Job) notify(ctx context.Context, now time.Time, list []codes.Code) ([]codes.Code, error) {
	if j.options.Notifier == nil {
		return list, nil
	}

	delivered := []codes.Code{}
	for i, c := range list {
		if i > 0 && j.options.NotifyDelay > 0 {
			timer := time.NewTimer(j.options.NotifyDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return delivered, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		err := j.options.Notifier.Notify(ctx, notify.Notification{
			Game: j.Game(),
			Code: c,
			At:   now,
		})
		if err != nil {
			j.tel.ReportWarning(report_job_notify, err, c.Code)
			continue
		}
		delivered = append(delivered, c)
	}
	return delivered, nil
}
