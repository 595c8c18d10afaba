package ports

import (
	"context"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

type ChatNotifier interface {
	Send(ctx context.Context, text string) error
}

type Mailer interface {
	Send(ctx context.Context, mail domain.OwnerMail) error
}

// LogSink ships one structured message to a log collector.
type LogSink interface {
	Publish(ctx context.Context, host, shortMessage string) error
}

type Transliterator interface {
	Transliterate(s string) string
}

type MetricsPusher interface {
	Push(ctx context.Context, report *domain.Report) error
}
