package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const TaskGroups = "groups"

// GroupBinding ties a monitoring group to the resources it charts.
type GroupBinding struct {
	Kind      domain.ResourceKind `mapstructure:"kind" validate:"required,oneof=server volume database mount_point"`
	Namespace string              `mapstructure:"namespace" validate:"required"`
	Metric    string              `mapstructure:"metric" validate:"required"`
}

type GroupSyncConfig struct {
	Skip                 []string                `mapstructure:"skip"`
	Bindings             map[string]GroupBinding `mapstructure:"bindings" validate:"dive"`
	MountPointExclusions []string                `mapstructure:"mount_point_exclusions"`
	WorkerMultiplier     int                     `mapstructure:"worker_multiplier" validate:"gte=1,lte=32"`
}

func DefaultGroupSyncConfig() GroupSyncConfig {
	return GroupSyncConfig{
		Skip: []string{"default"},
		Bindings: map[string]GroupBinding{
			"all_ecs":        {Kind: domain.KindServer, Namespace: "AWS/EC2", Metric: "CPUUtilization"},
			"all_evs":        {Kind: domain.KindVolume, Namespace: "AWS/EBS", Metric: "VolumeIdleTime"},
			"all_rds":        {Kind: domain.KindDatabase, Namespace: "AWS/RDS", Metric: "CPUUtilization"},
			"all_mountpoint": {Kind: domain.KindMountPoint, Namespace: "CWAgent", Metric: "disk_used_percent"},
		},
		MountPointExclusions: []string{"var", "run", "iso", "pods", "docker", "cd1", "dm"},
		WorkerMultiplier:     2,
	}
}

// GroupSynchronizer rewrites each bound monitoring group with the current
// inventory of its resource kind.
type GroupSynchronizer struct {
	cfg        GroupSyncConfig
	scope      Scope
	groups     ports.GroupStore
	inventory  ports.Inventory
	mounts     ports.MountPointInventory
	dispatcher *Dispatcher
	logger     ports.Logger
	now        func() time.Time
}

func NewGroupSynchronizer(cfg GroupSyncConfig, scope Scope, groups ports.GroupStore, inventory ports.Inventory, mounts ports.MountPointInventory, logger ports.Logger) (*GroupSynchronizer, error) {
	if groups == nil || inventory == nil || mounts == nil {
		return nil, errors.New(errors.CodeInternal, "group synchronizer requires group store, inventory and mount point inventory")
	}
	logger = logger.WithFields(map[string]any{"task": TaskGroups})
	return &GroupSynchronizer{
		cfg:        cfg,
		scope:      scope,
		groups:     groups,
		inventory:  inventory,
		mounts:     mounts,
		dispatcher: NewDispatcher(WorkersFor(cfg.WorkerMultiplier), logger),
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (g *GroupSynchronizer) Name() string { return TaskGroups }

func (g *GroupSynchronizer) Run(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport(TaskGroups, g.now())

	groups := Collect[domain.MonitorGroup](ctx, g.groups.ListGroups, CollectOptions[domain.MonitorGroup]{
		Resource: domain.KindGroup.String(),
		Limit:    g.scope.PageLimit,
		Retry:    g.scope.Retry,
		Logger:   g.logger,
	})
	report.Inventory[domain.KindGroup] = len(groups.Items)
	if !groups.Complete() {
		report.Partial = append(report.Partial, groups.Cause.Error())
	}
	if len(groups.Items) == 0 {
		g.logger.Infof(ctx, "No monitoring groups found, nothing to synchronize")
		return finish(report, g.now), nil
	}

	members := map[domain.ResourceKind][]domain.GroupMember{}
	complete := map[domain.ResourceKind]bool{}
	var jobs []Job
	for _, group := range groups.Items {
		if g.skipped(group.Name) {
			g.logger.Debugf(ctx, "Skipping reserved group %s", group.Name)
			report.Skipped++
			continue
		}
		binding, ok := g.cfg.Bindings[group.Name]
		if !ok {
			g.logger.Warnf(ctx, "Group %s has no resource binding, skipping", group.Name)
			report.Skipped++
			continue
		}

		if _, listed := members[binding.Kind]; !listed {
			members[binding.Kind], complete[binding.Kind] = g.members(ctx, binding.Kind, report)
		}
		if !complete[binding.Kind] {
			err := errors.Newf(errors.CodeInventoryPartial, "inventory of %s incomplete, group %s left unchanged", binding.Kind, group.Name)
			g.logger.Warnf(ctx, "%s", err.Message)
			report.Add(domain.TaskResult{Action: domain.ActionPutGroup, Kind: domain.KindGroup, Resource: group.Name, Err: err})
			continue
		}

		target := domain.MonitorGroup{
			Name:    group.Name,
			ID:      group.ID,
			Metric:  domain.MetricRef{Namespace: binding.Namespace, Name: binding.Metric},
			Members: members[binding.Kind],
		}
		jobs = append(jobs, Job{
			Action:   domain.ActionPutGroup,
			Kind:     domain.KindGroup,
			Resource: group.Name,
			Run: func(ctx context.Context) (string, error) {
				if err := g.groups.PutGroup(ctx, target); err != nil {
					return "", err
				}
				return fmt.Sprintf("%d members", len(target.Members)), nil
			},
		})
	}

	report.Add(g.dispatcher.Run(ctx, jobs)...)
	return finish(report, g.now), nil
}

func (g *GroupSynchronizer) skipped(name string) bool {
	for _, s := range g.cfg.Skip {
		if s == name {
			return true
		}
	}
	return false
}

// members lists the current members of a kind, ordered by key so repeated
// runs produce identical group bodies.
func (g *GroupSynchronizer) members(ctx context.Context, kind domain.ResourceKind, report *domain.Report) ([]domain.GroupMember, bool) {
	var out []domain.GroupMember
	complete := true

	switch kind {
	case domain.KindServer:
		inv := collectRegions[domain.Server](ctx, g.scope, g.logger, report, kind, g.inventory.ListServers, domain.Server.Exists)
		for region, regionInv := range inv {
			for _, s := range regionInv.Items {
				out = append(out, member(kind, region, "InstanceId", s.ID))
			}
		}
		complete = inv.complete()
	case domain.KindVolume:
		inv := collectRegions[domain.Volume](ctx, g.scope, g.logger, report, kind, g.inventory.ListVolumes, nil)
		for region, regionInv := range inv {
			for _, v := range regionInv.Items {
				out = append(out, member(kind, region, "VolumeId", v.ID))
			}
		}
		complete = inv.complete()
	case domain.KindDatabase:
		inv := collectRegions[domain.Database](ctx, g.scope, g.logger, report, kind, g.inventory.ListDatabases, nil)
		for region, regionInv := range inv {
			for _, d := range regionInv.Items {
				out = append(out, member(kind, region, "DBInstanceIdentifier", d.ID))
			}
		}
		complete = inv.complete()
	case domain.KindMountPoint:
		inv := collectRegions[domain.GroupMember](ctx, g.scope, g.logger, report, kind, g.mounts.ListMountPoints, g.keepMountPoint)
		out = inv.all()
		complete = inv.complete()
	default:
		g.logger.Warnf(ctx, "Unsupported group member kind %s", kind)
		return nil, false
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Key() < out[j].Key()
	})
	return out, complete
}

// keepMountPoint drops system and container filesystems.
func (g *GroupSynchronizer) keepMountPoint(m domain.GroupMember) bool {
	for _, d := range m.Dimensions {
		if d.Name != "path" && d.Name != "device" {
			continue
		}
		for _, excluded := range g.cfg.MountPointExclusions {
			if excluded != "" && strings.Contains(d.Value, excluded) {
				return false
			}
		}
	}
	return true
}

func member(kind domain.ResourceKind, region, dimension, value string) domain.GroupMember {
	return domain.GroupMember{Kind: kind, Region: region, Dimensions: []domain.Dimension{{Name: dimension, Value: value}}}
}
