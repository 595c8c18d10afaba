package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

func TestDispatcher_EveryJobYieldsOneResult(t *testing.T) {
	d := NewDispatcher(3, log.NewNop())

	var jobs []Job
	for i := 0; i < 10; i++ {
		jobs = append(jobs, Job{
			Action:   domain.ActionCreateTags,
			Resource: fmt.Sprintf("r-%d", i),
			Run: func(context.Context) (string, error) {
				if i%3 == 0 {
					return "", fmt.Errorf("job %d failed", i)
				}
				return "ok", nil
			},
		})
	}

	results := d.Run(context.Background(), jobs)

	require.Len(t, results, 10)
	seen := map[string]bool{}
	failed := 0
	for _, res := range results {
		seen[res.Resource] = true
		if !res.Succeeded() {
			failed++
			assert.True(t, errors.Is(res.Err, errors.CodeMutationFailed))
		} else {
			assert.Equal(t, "ok", res.Detail)
		}
	}
	assert.Len(t, seen, 10)
	assert.Equal(t, 4, failed)
}

func TestDispatcher_RespectsWorkerLimit(t *testing.T) {
	d := NewDispatcher(2, log.NewNop())

	var running, peak int32
	var jobs []Job
	for i := 0; i < 8; i++ {
		jobs = append(jobs, Job{Run: func(context.Context) (string, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return "", nil
		}})
	}

	d.Run(context.Background(), jobs)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(1, log.NewNop())

	results := d.Run(context.Background(), []Job{
		{Action: domain.ActionRename, Resource: "boom", Run: func(context.Context) (string, error) { panic("nil map") }},
		{Action: domain.ActionRename, Resource: "fine", Run: func(context.Context) (string, error) { return "done", nil }},
	})

	require.Len(t, results, 2)
	byResource := map[string]domain.TaskResult{}
	for _, r := range results {
		byResource[r.Resource] = r
	}
	assert.True(t, errors.Is(byResource["boom"].Err, errors.CodeInternal))
	assert.Contains(t, byResource["boom"].Err.Error(), "nil map")
	assert.True(t, byResource["fine"].Succeeded())
}

func TestDispatcher_NoJobs(t *testing.T) {
	assert.Nil(t, NewDispatcher(0, log.NewNop()).Run(context.Background(), nil))
	assert.Positive(t, NewDispatcher(0, log.NewNop()).Workers())
	assert.Equal(t, WorkersFor(1), WorkersFor(0))
}
