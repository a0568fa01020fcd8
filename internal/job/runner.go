package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/telemetry"

	"github.com/mazen160/go-random"
)

const (
	report_runner_run = "runner.run"
)

// Runner executes independent jobs in parallel.
type Runner struct {
	jobs []Job
	tel  telemetry.API
}

func NewRunner(jobs []Job, tel telemetry.API) Runner {
	assert.NotNil(tel)
	return Runner{jobs: jobs, tel: telemetry.NewScopedAPI("runner", tel)}
}

func newRunID() string {
	id, err := random.String(8)
	if err != nil {
		return time.Now().Format("150405.000")
	}
	return id
}

// Run starts every job and waits for all of them. Results are in the order the
// jobs were given, a failing or panicking job never affects the others.
func (r Runner) Run(ctx context.Context) []Result {
	runID := newRunID()
	r.tel.ReportDebug("starting run", runID, len(r.jobs))

	results := make([]Result, len(r.jobs))
	wg := sync.WaitGroup{}
	for i, j := range r.jobs {
		wg.Add(1)
		go func(i int, j Job) {
			defer wg.Done()
			defer func() {
				// Run recovers its own stages, this only catches panics
				// outside of them.
				if recovered := recover(); recovered != nil {
					err := panicError{value: recovered}
					r.tel.ReportBroken(report_runner_run, err, runID, j.Game().ID)
					results[i] = Result{
						Game:     j.Game(),
						Stages:   []Stage{StageFailed},
						FailedAt: StageIdle,
						Err:      err,
					}
				}
			}()
			results[i] = j.Run(ctx)
		}(i, j)
	}
	wg.Wait()

	for _, res := range results {
		if !res.Stage().Terminal() {
			r.tel.ReportBroken(report_runner_run, fmt.Errorf("job ended in stage %s", res.Stage()), runID, res.Game.ID)
		}
		r.tel.ReportDebug("job finished", runID, res.Game.ID, res.Stage().String())
	}
	return results
}
