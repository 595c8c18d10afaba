package service

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// Job is one mutation handed to the dispatcher.
type Job struct {
	Action   domain.Action
	Kind     domain.ResourceKind
	Resource string
	Region   string
	Run      func(ctx context.Context) (string, error)
}

// Dispatcher runs mutations on a fixed number of workers. Jobs never cancel
// each other; every job yields exactly one result.
type Dispatcher struct {
	workers int
	logger  ports.Logger
}

// WorkersFor sizes a pool as a multiple of the available CPUs.
func WorkersFor(multiplier int) int {
	if multiplier <= 0 {
		multiplier = 1
	}
	return runtime.NumCPU() * multiplier
}

func NewDispatcher(workers int, logger ports.Logger) *Dispatcher {
	if workers <= 0 {
		workers = WorkersFor(1)
	}
	return &Dispatcher{workers: workers, logger: logger}
}

func (d *Dispatcher) Workers() int { return d.workers }

// Run blocks until every job has finished. Results come back in completion order.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job) []domain.TaskResult {
	if len(jobs) == 0 {
		return nil
	}
	d.logger.Debugf(ctx, "Dispatching %d jobs on %d workers", len(jobs), d.workers)

	done := make(chan domain.TaskResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for _, job := range jobs {
		g.Go(func() error {
			done <- d.execute(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	results := make([]domain.TaskResult, 0, len(jobs))
	failed := 0
	for res := range done {
		if res.Err != nil {
			failed++
		}
		results = append(results, res)
	}
	d.logger.Infof(ctx, "Dispatched %d jobs: %d succeeded, %d failed", len(results), len(results)-failed, failed)
	return results
}

func (d *Dispatcher) execute(ctx context.Context, job Job) (res domain.TaskResult) {
	res = domain.TaskResult{Action: job.Action, Kind: job.Kind, Resource: job.Resource, Region: job.Region}
	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.New(errors.CodeInternal, fmt.Sprintf("%s %s panicked: %v", job.Action, job.Resource, r))
			d.logger.Errorf(ctx, res.Err, "Job panicked")
		}
	}()

	detail, err := job.Run(ctx)
	res.Detail = detail
	if err != nil {
		res.Err = errors.Wrap(err, errors.CodeMutationFailed, fmt.Sprintf("%s %s failed", job.Action, job.Resource))
		d.logger.Errorf(ctx, res.Err, "%s on %s %s failed", job.Action, job.Kind, job.Resource)
	}
	return res
}
