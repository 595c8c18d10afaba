// Package metrics pushes the outcome of each run to a Prometheus Pushgateway.
// Short-lived handlers cannot be scraped, so every run replaces its group.
package metrics

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const namespace = "housekeeper"

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Gateway string `mapstructure:"gateway" validate:"required_if=Enabled true"`
	Job     string `mapstructure:"job" validate:"required_if=Enabled true"`
}

type Pusher struct {
	cfg    Config
	logger ports.Logger
}

func NewPusher(cfg Config, logger ports.Logger) *Pusher {
	return &Pusher{cfg: cfg, logger: logger.WithFields(map[string]any{"component": "metrics"})}
}

var _ ports.MetricsPusher = (*Pusher)(nil)

// Collect builds a registry holding the gauges of one report.
func Collect(report *domain.Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the run finished.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the run.",
	})
	partial := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "partial_listings",
		Help:      "Listings that stopped before their last page.",
	})
	skipped := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "skipped_resources",
		Help:      "Resources left alone on purpose.",
	})
	inventory := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_resources",
		Help:      "Resources listed per kind.",
	}, []string{"kind"})
	actions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "actions",
		Help:      "Mutations per action and outcome.",
	}, []string{"action", "outcome"})
	reg.MustRegister(finished, duration, partial, skipped, inventory, actions)

	if !report.FinishedAt.IsZero() {
		finished.Set(float64(report.FinishedAt.Unix()))
		duration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	partial.Set(float64(len(report.Partial)))
	skipped.Set(float64(report.Skipped))
	for kind, n := range report.Inventory {
		inventory.WithLabelValues(kind.String()).Set(float64(n))
	}

	seen := map[domain.Action]struct{}{}
	for _, r := range report.Results {
		seen[r.Action] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for a := range seen {
		names = append(names, string(a))
	}
	sort.Strings(names)
	for _, name := range names {
		ok, failed := report.Count(domain.Action(name))
		actions.WithLabelValues(name, "succeeded").Set(float64(ok))
		actions.WithLabelValues(name, "failed").Set(float64(failed))
	}
	return reg
}

func (p *Pusher) Push(ctx context.Context, report *domain.Report) error {
	if !p.cfg.Enabled {
		return nil
	}
	err := push.New(p.cfg.Gateway, p.cfg.Job).
		Gatherer(Collect(report)).
		Grouping("task", report.Task).
		PushContext(ctx)
	if err != nil {
		return errors.Wrapf(err, errors.CodeNotificationFailed, "failed to push metrics of %s", report.Task)
	}
	p.logger.Debugf(ctx, "Pushed metrics of %s to %s", report.Task, p.cfg.Gateway)
	return nil
}
