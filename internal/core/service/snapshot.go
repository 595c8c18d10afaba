package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const TaskSnapshots = "snapshots"

type SnapshotConfig struct {
	WorkerMultiplier int    `mapstructure:"worker_multiplier" validate:"gte=1,lte=32"`
	NameDateLayout   string `mapstructure:"name_date_layout" validate:"required"`
}

func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		WorkerMultiplier: 6,
		NameDateLayout:   "2006-01-02",
	}
}

// SnapshotRotator keeps a bounded number of snapshots per in-use volume.
type SnapshotRotator struct {
	cfg        SnapshotConfig
	scope      Scope
	retention  int
	inventory  ports.Inventory
	snapshots  ports.SnapshotStore
	chat       ports.ChatNotifier
	dispatcher *Dispatcher
	logger     ports.Logger
	now        func() time.Time
}

type RotatorOption func(*SnapshotRotator)

func WithChatNotifier(chat ports.ChatNotifier) RotatorOption {
	return func(r *SnapshotRotator) { r.chat = chat }
}

func WithRotatorClock(now func() time.Time) RotatorOption {
	return func(r *SnapshotRotator) { r.now = now }
}

func NewSnapshotRotator(cfg SnapshotConfig, scope Scope, retention int, inventory ports.Inventory, snapshots ports.SnapshotStore, logger ports.Logger, opts ...RotatorOption) (*SnapshotRotator, error) {
	if retention < 1 {
		return nil, errors.NewUserFacing(errors.CodeInvalidParameter,
			fmt.Sprintf("snapshot retention must be at least 1, got %d", retention),
			"Set the max_savetime parameter to a positive number.")
	}
	if inventory == nil || snapshots == nil {
		return nil, errors.New(errors.CodeInternal, "snapshot rotator requires inventory and snapshot store")
	}
	logger = logger.WithFields(map[string]any{"task": TaskSnapshots})
	r := &SnapshotRotator{
		cfg:        cfg,
		scope:      scope,
		retention:  retention,
		inventory:  inventory,
		snapshots:  snapshots,
		dispatcher: NewDispatcher(WorkersFor(cfg.WorkerMultiplier), logger),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *SnapshotRotator) Name() string { return TaskSnapshots }

func (r *SnapshotRotator) Run(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport(TaskSnapshots, r.now())
	date := r.now().Format(r.cfg.NameDateLayout)

	volumes := collectRegions[domain.Volume](ctx, r.scope, r.logger, report, domain.KindVolume, r.inventory.ListVolumes, domain.Volume.Active)

	var jobs []Job
	total := 0
	for _, region := range r.scope.Regions {
		regionVolumes := volumes[region].Items
		if len(regionVolumes) == 0 {
			continue
		}
		total += len(regionVolumes)

		listed := Collect[domain.Snapshot](ctx, r.snapshots.ListSnapshots, CollectOptions[domain.Snapshot]{
			Resource: domain.KindSnapshot.String(),
			Region:   region,
			Limit:    r.scope.PageLimit,
			Retry:    r.scope.Retry,
			Logger:   r.logger,
		})
		report.Inventory[domain.KindSnapshot] += len(listed.Items)
		prune := listed.Complete()
		if !prune {
			report.Partial = append(report.Partial, listed.Cause.Error())
			r.logger.Warnf(ctx, "Snapshot listing in %s incomplete, skipping deletions there", region)
		}
		ledger := domain.NewSnapshotLedger(listed.Items)

		for _, volume := range regionVolumes {
			jobs = append(jobs, r.plan(region, volume, ledger, prune, date)...)
		}
	}

	r.logger.Infof(ctx, "Rotating snapshots for %d in-use volumes (retention %d)", total, r.retention)
	report.Add(r.dispatcher.Run(ctx, jobs)...)

	created, _ := report.Count(domain.ActionCreateSnapshot)
	summary := fmt.Sprintf("Total disks: %d, snapshots created: %d", total, created)
	r.logger.Infof(ctx, "%s", summary)
	r.notify(ctx, report, summary)

	return finish(report, r.now), nil
}

// plan returns the jobs for one volume: a delete of the oldest snapshot when
// the retention count is reached, and always one create.
func (r *SnapshotRotator) plan(region string, volume domain.Volume, ledger domain.SnapshotLedger, prune bool, date string) []Job {
	var jobs []Job
	if prune && ledger.Count(volume.ID) >= r.retention {
		if oldest, ok := ledger.Oldest(volume.ID); ok {
			jobs = append(jobs, Job{
				Action:   domain.ActionDeleteSnapshot,
				Kind:     domain.KindSnapshot,
				Resource: oldest.ID,
				Region:   region,
				Run: func(ctx context.Context) (string, error) {
					return volume.ID, r.snapshots.DeleteSnapshot(ctx, region, oldest.ID)
				},
			})
		}
	}

	name := volume.DisplayName() + "-" + date
	jobs = append(jobs, Job{
		Action:   domain.ActionCreateSnapshot,
		Kind:     domain.KindVolume,
		Resource: volume.ID,
		Region:   region,
		Run: func(ctx context.Context) (string, error) {
			return r.snapshots.CreateSnapshot(ctx, region, volume.ID, name)
		},
	})
	return jobs
}

func (r *SnapshotRotator) notify(ctx context.Context, report *domain.Report, summary string) {
	if r.chat == nil {
		return
	}
	if err := r.chat.Send(ctx, summary); err != nil {
		r.logger.Errorf(ctx, err, "Failed to send snapshot summary")
		report.Notices = append(report.Notices, err.Error())
	}

	failures := report.Failures()
	if len(failures) == 0 {
		return
	}
	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("%s %s (%s): %v", f.Action, f.Resource, f.Region, f.Err))
	}
	if err := r.chat.Send(ctx, "Errors:\n"+strings.Join(lines, "\n")); err != nil {
		r.logger.Errorf(ctx, err, "Failed to send snapshot error list")
		report.Notices = append(report.Notices, err.Error())
	}
}
