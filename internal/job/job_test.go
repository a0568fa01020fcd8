package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/games"
	"hoyocodes/internal/notify"
	"hoyocodes/internal/snapshot"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f fakeFetcher) Document(_ context.Context, url string) (*goquery.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

type fakeNotifier struct {
	mutex sync.Mutex
	sent  []string
	fail  map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fail[n.Code.Code] {
		return errors.New("webhook down")
	}
	f.sent = append(f.sent, n.Code.Code)
	return nil
}

type fakeHistory struct {
	recorded []string
}

func (f *fakeHistory) Record(_ context.Context, game string, list []codes.Code, _ time.Time) error {
	for _, c := range list {
		f.recorded = append(f.recorded, game+":"+c.Code)
	}
	return nil
}

func starRailPage(rows ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="mw-parser-output"><table class="wikitable"><tbody>`)
	b.WriteString(`<tr><th>Code</th><th>Server</th><th>Rewards</th><th>Duration</th></tr>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</tbody></table></div>`)
	return b.String()
}

func codeRow(code, duration string) string {
	return fmt.Sprintf(`<tr><td><code>%s</code></td><td>All</td><td></td><td>%s</td></tr>`, code, duration)
}

const starRailURL = "https://honkai-star-rail.fandom.com/wiki/Redemption_Code"

type fixture struct {
	store    snapshot.Store
	notifier *fakeNotifier
	history  *fakeHistory
	rec      *telemetry.Recorder
}

func newFixture(t *testing.T) fixture {
	rec := telemetry.NewRecorder()
	return fixture{
		store:    snapshot.NewStore(t.TempDir(), rec),
		notifier: &fakeNotifier{fail: map[string]bool{}},
		history:  &fakeHistory{},
		rec:      rec,
	}
}

func (f fixture) job(fetcher DocumentFetcher) Job {
	game, _ := games.Lookup("starrail")
	source := games.NewStarRailSource(game, "", codes.NewNormalizer(f.rec))
	return NewJob(Options{
		Source:   source,
		Fetcher:  fetcher,
		Store:    f.store,
		Notifier: f.notifier,
		History:  f.history,
		Time:     chrono.NewFixed(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)),
	}, f.rec)
}

func TestJobNotifiesOnlyNewCodes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Write("starrail", []codes.Code{
		{Code: "CODE1", Status: codes.StatusActive},
	}))

	fetcher := fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(
			codeRow("CODE1", "Valid until: (indefinite)"),
			codeRow("CODE2", "Valid until: July 1, 2099"),
			codeRow("OLD", "Valid until: May 1, 2023"),
		),
	}}

	result := f.job(fetcher).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 2, result.Active)
	require.Equal(t, 1, result.Expired)
	require.Equal(t, 1, result.New)
	require.Equal(t, []string{"CODE2"}, codes.Strings(result.NewCodes))
	require.Equal(t, []Stage{
		StageIdle,
		StageFetching,
		StageParsing,
		StageDiffing,
		StagePersisting,
		StageNotifying,
		StageDone,
	}, result.Stages)

	require.Equal(t, []string{"CODE2"}, f.notifier.sent)
	require.Equal(t, []string{"starrail:CODE2"}, f.history.recorded)
	require.Equal(t, map[string]struct{}{"CODE1": {}, "CODE2": {}}, f.store.ReadActiveCodes("starrail"))

	found, ok := f.rec.Count(report_codes_found)
	require.True(t, ok)
	require.EqualValues(t, 3, found)

	again := f.job(fetcher).Run(context.Background())
	require.NoError(t, again.Err)
	require.Zero(t, again.New)
	require.Equal(t, []string{"CODE2"}, f.notifier.sent)
}

func TestJobFirstRunNotifiesEverything(t *testing.T) {
	f := newFixture(t)
	fetcher := fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(
			codeRow("A", "Valid until: (indefinite)"),
			codeRow("B", "Valid until: July 1, 2099"),
		),
	}}

	result := f.job(fetcher).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, []string{"A", "B"}, f.notifier.sent)
}

func TestJobFetchFailureLeavesSnapshot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Write("starrail", []codes.Code{
		{Code: "CODE1", Status: codes.StatusActive},
	}))

	fetchErr := errors.New("connection reset")
	result := f.job(fakeFetcher{err: fetchErr}).Run(context.Background())

	require.ErrorIs(t, result.Err, fetchErr)
	require.Equal(t, StageFailed, result.Stage())
	require.Equal(t, StageFetching, result.FailedAt)
	require.Empty(t, f.notifier.sent)
	require.Equal(t, map[string]struct{}{"CODE1": {}}, f.store.ReadActiveCodes("starrail"))
	require.Len(t, f.rec.Find("broken", report_job_run), 1)
}

func TestJobNotificationFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail["A"] = true

	fetcher := fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(
			codeRow("A", "Valid until: (indefinite)"),
			codeRow("B", "Valid until: (indefinite)"),
		),
	}}

	result := f.job(fetcher).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, StageDone, result.Stage())
	require.Equal(t, 2, result.New)
	require.Equal(t, []string{"B"}, f.notifier.sent)
	require.Equal(t, []string{"starrail:B"}, f.history.recorded)
	require.Len(t, f.rec.Find("warning", report_job_notify), 1)
	require.Len(t, f.store.ReadActiveCodes("starrail"), 2)
}

func TestJobNotifyDelayRespectsCancel(t *testing.T) {
	f := newFixture(t)
	fetcher := fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(
			codeRow("A", "Valid until: (indefinite)"),
			codeRow("B", "Valid until: (indefinite)"),
		),
	}}

	j := f.job(fetcher)
	j.options.NotifyDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	result := j.Run(ctx)
	require.ErrorIs(t, result.Err, context.DeadlineExceeded)
	require.Equal(t, StageNotifying, result.FailedAt)
	require.Equal(t, []string{"A"}, f.notifier.sent)
	require.Len(t, f.store.ReadActiveCodes("starrail"), 2)
}

func TestJobWithoutNotifier(t *testing.T) {
	f := newFixture(t)
	fetcher := fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(codeRow("A", "Valid until: (indefinite)")),
	}}

	j := f.job(fetcher)
	j.options.Notifier = nil
	result := j.Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.New)
	require.Equal(t, []string{"starrail:A"}, f.history.recorded)
}

func TestDiff(t *testing.T) {
	previous := map[string]struct{}{"CODE1": {}}
	active := []codes.Code{{Code: "CODE1"}, {Code: "CODE2"}}
	require.Equal(t, []string{"CODE2"}, codes.Strings(Diff(previous, active)))
	require.Equal(t, []string{"CODE1", "CODE2"}, codes.Strings(Diff(nil, active)))
	require.Empty(t, Diff(previous, nil))
}

type panicSource struct {
	games.Source
}

func (p panicSource) Parse(*goquery.Document, games.Page, time.Time) []codes.Code {
	panic("boom")
}

func TestRunnerIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	good := f.job(fakeFetcher{pages: map[string]string{
		starRailURL: starRailPage(codeRow("A", "Valid until: (indefinite)")),
	}})

	broken := f.job(fakeFetcher{err: errors.New("down")})

	game, _ := games.Lookup("genshin")
	panicking := NewJob(Options{
		Source:  panicSource{Source: games.NewGenshinSource(game, "", codes.NewNormalizer(f.rec))},
		Fetcher: fakeFetcher{pages: map[string]string{
			"https://genshin-impact.fandom.com/wiki/Promotional_Code":         "<html></html>",
			"https://genshin-impact.fandom.com/wiki/Promotional_Code/History": "<html></html>",
		}},
		Store: f.store,
		Time:  chrono.NewFixed(time.Now()),
	}, f.rec)

	results := NewRunner([]Job{broken, panicking, good}, f.rec).Run(context.Background())
	require.Len(t, results, 3)

	require.Error(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.Contains(t, results[1].Err.Error(), "boom")
	require.Equal(t, games.Genshin, results[1].Game.ID)
	require.Equal(t, StageParsing, results[1].FailedAt)
	require.Equal(t, StageFailed, results[1].Stage())
	require.NoError(t, results[2].Err)
	require.Equal(t, StageDone, results[2].Stage())
}

func TestJobRecoversPanicInStage(t *testing.T) {
	f := newFixture(t)
	game, _ := games.Lookup("genshin")
	j := NewJob(Options{
		Source:  panicSource{Source: games.NewGenshinSource(game, "", codes.NewNormalizer(f.rec))},
		Fetcher: fakeFetcher{pages: map[string]string{
			"https://genshin-impact.fandom.com/wiki/Promotional_Code":         "<html></html>",
			"https://genshin-impact.fandom.com/wiki/Promotional_Code/History": "<html></html>",
		}},
		Store: f.store,
		Time:  chrono.NewFixed(time.Now()),
	}, f.rec)

	res := j.Run(context.Background())
	require.ErrorContains(t, res.Err, "boom")
	require.Equal(t, StageParsing, res.FailedAt)
	require.Equal(t, []Stage{StageIdle, StageFetching, StageParsing, StageFailed}, res.Stages)
	require.Len(t, f.rec.Find("broken", report_job_run), 1)

	_, err := f.store.Read("genshin", snapshot.KindAll)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "persisting", StagePersisting.String())
	require.True(t, StageFailed.Terminal())
	require.False(t, StageNotifying.Terminal())
}
