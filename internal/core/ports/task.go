package ports

import (
	"context"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

// Task is a scheduled housekeeping job run once per invocation.
type Task interface {
	Name() string
	Run(ctx context.Context) (*domain.Report, error)
}

type Reporter interface {
	Report(ctx context.Context, report *domain.Report) error
}
