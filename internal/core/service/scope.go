package service

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

// Scope is where and how a task lists resources.
type Scope struct {
	Regions   []string
	PageLimit int32
	Retry     RetryPolicy
}

type regional[T any] map[string]domain.Inventory[T]

func (r regional[T]) all() []T {
	var out []T
	for _, inv := range r {
		out = append(out, inv.Items...)
	}
	return out
}

func (r regional[T]) complete() bool {
	for _, inv := range r {
		if !inv.Complete() {
			return false
		}
	}
	return true
}

// collectRegions lists one resource type in every region of the scope and
// records incomplete listings on the report.
func collectRegions[T any](ctx context.Context, s Scope, logger ports.Logger, report *domain.Report, kind domain.ResourceKind, fetch ports.PageFetcher[T], keep func(T) bool) regional[T] {
	out := regional[T]{}
	for _, region := range s.Regions {
		inv := Collect[T](ctx, fetch, CollectOptions[T]{
			Resource: kind.String(),
			Region:   region,
			Limit:    s.PageLimit,
			Keep:     keep,
			Retry:    s.Retry,
			Logger:   logger,
		})
		out[region] = inv
		if report != nil {
			report.Inventory[kind] += len(inv.Items)
			if !inv.Complete() {
				report.Partial = append(report.Partial, inv.Cause.Error())
			}
		}
	}
	return out
}

func finish(report *domain.Report, now func() time.Time) *domain.Report {
	report.FinishedAt = now()
	return report
}
