package service

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const TaskTags = "tags"

type TagSyncConfig struct {
	ProjectTagKey     string   `mapstructure:"project_tag_key" validate:"required"`
	ReservedPrefixes  []string `mapstructure:"reserved_prefixes"`
	ExcludedKeys      []string `mapstructure:"excluded_keys"`
	SyncVolumes       bool     `mapstructure:"sync_volumes"`
	SyncPublicIPs     bool     `mapstructure:"sync_public_ips"`
	MigrateProjects   bool     `mapstructure:"migrate_projects"`
	MigrateAssociated bool     `mapstructure:"migrate_associated"`
	WorkerMultiplier  int      `mapstructure:"worker_multiplier" validate:"gte=1,lte=32"`
}

func DefaultTagSyncConfig() TagSyncConfig {
	return TagSyncConfig{
		ProjectTagKey:     "projectname",
		ReservedPrefixes:  []string{"aws:"},
		ExcludedKeys:      []string{domain.TagName},
		SyncVolumes:       true,
		SyncPublicIPs:     true,
		MigrateProjects:   true,
		MigrateAssociated: true,
		WorkerMultiplier:  4,
	}
}

// TagReconciler copies server tags onto the volumes and addresses attached to
// each server and moves servers into the project their tag names.
type TagReconciler struct {
	cfg        TagSyncConfig
	scope      Scope
	inventory  ports.Inventory
	tagger     ports.Tagger
	projects   ports.ProjectStore
	dispatcher *Dispatcher
	logger     ports.Logger
	now        func() time.Time
}

func NewTagReconciler(cfg TagSyncConfig, scope Scope, inventory ports.Inventory, tagger ports.Tagger, projects ports.ProjectStore, logger ports.Logger) (*TagReconciler, error) {
	if inventory == nil || tagger == nil {
		return nil, errors.New(errors.CodeInternal, "tag reconciler requires inventory and tagger")
	}
	if cfg.MigrateProjects && projects == nil {
		return nil, errors.New(errors.CodeInternal, "project migration enabled without a project store")
	}
	logger = logger.WithFields(map[string]any{"task": TaskTags})
	return &TagReconciler{
		cfg:        cfg,
		scope:      scope,
		inventory:  inventory,
		tagger:     tagger,
		projects:   projects,
		dispatcher: NewDispatcher(WorkersFor(cfg.WorkerMultiplier), logger),
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (t *TagReconciler) Name() string { return TaskTags }

func (t *TagReconciler) Run(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport(TaskTags, t.now())

	servers := collectRegions[domain.Server](ctx, t.scope, t.logger, report, domain.KindServer, t.inventory.ListServers, domain.Server.Active)
	var volumes regional[domain.Volume]
	if t.cfg.SyncVolumes || (t.cfg.MigrateProjects && t.cfg.MigrateAssociated) {
		volumes = collectRegions[domain.Volume](ctx, t.scope, t.logger, report, domain.KindVolume, t.inventory.ListVolumes, domain.Volume.Active)
	}
	var addresses regional[domain.PublicIP]
	if t.cfg.SyncPublicIPs || (t.cfg.MigrateProjects && t.cfg.MigrateAssociated) {
		addresses = collectRegions[domain.PublicIP](ctx, t.scope, t.logger, report, domain.KindPublicIP, t.inventory.ListPublicIPs, domain.PublicIP.Active)
	}

	var jobs []Job
	for _, region := range t.scope.Regions {
		byID := map[string]domain.Server{}
		byPublicIP := map[string]domain.Server{}
		for _, s := range servers[region].Items {
			byID[s.ID] = s
			if s.PublicIP != "" {
				byPublicIP[s.PublicIP] = s
			}
		}

		if t.cfg.SyncPublicIPs {
			for _, addr := range addresses[region].Items {
				owner, ok := byID[addr.ServerID]
				if !ok {
					owner, ok = byPublicIP[addr.PublicIP]
				}
				if !ok {
					t.logger.Debugf(ctx, "Address %s is not bound to a running server, skipping", addr.PublicIP)
					report.Skipped++
					continue
				}
				jobs = t.appendTagJob(ctx, jobs, report, region, domain.KindPublicIP, addr.AllocationID, owner, addr.Tags)
			}
		}

		if t.cfg.SyncVolumes {
			for _, vol := range volumes[region].Items {
				att, ok := vol.PrimaryAttachment()
				owner, found := byID[att.ServerID]
				if !ok || !found {
					t.logger.Debugf(ctx, "Volume %s is not attached to a running server, skipping", vol.ID)
					report.Skipped++
					continue
				}
				jobs = t.appendTagJob(ctx, jobs, report, region, domain.KindVolume, vol.ID, owner, vol.Tags)
			}
		}

		if t.cfg.MigrateProjects {
			jobs = append(jobs, t.projectJobs(ctx, report, region, servers[region].Items, volumes[region].Items, addresses[region].Items)...)
		}
	}

	report.Add(t.dispatcher.Run(ctx, jobs)...)
	return finish(report, t.now), nil
}

// referenceTags is what a server propagates: its tags minus platform reserved
// keys and keys that belong to each resource individually.
func (t *TagReconciler) referenceTags(server domain.Server) domain.Tags {
	ref := server.Tags.WithoutPrefix(t.cfg.ReservedPrefixes...)
	for _, k := range t.cfg.ExcludedKeys {
		delete(ref, k)
	}
	return ref
}

func (t *TagReconciler) appendTagJob(ctx context.Context, jobs []Job, report *domain.Report, region string, kind domain.ResourceKind, id string, owner domain.Server, current domain.Tags) []Job {
	reference := t.referenceTags(owner)
	if len(reference) == 0 {
		t.logger.Debugf(ctx, "Server %s carries no tags to propagate to %s %s", owner.ID, kind, id)
		report.Skipped++
		return jobs
	}
	missing := reference.Missing(current)
	if len(missing) == 0 {
		report.Skipped++
		return jobs
	}
	return append(jobs, Job{
		Action:   domain.ActionCreateTags,
		Kind:     kind,
		Resource: id,
		Region:   region,
		Run: func(ctx context.Context) (string, error) {
			return fmt.Sprintf("%d tags from %s", len(missing), owner.ID), t.tagger.CreateTags(ctx, region, id, missing)
		},
	})
}

func (t *TagReconciler) projectJobs(ctx context.Context, report *domain.Report, region string, servers []domain.Server, volumes []domain.Volume, addresses []domain.PublicIP) []Job {
	projects := Collect[domain.Project](ctx, t.projects.ListProjects, CollectOptions[domain.Project]{
		Resource: "project",
		Region:   region,
		Limit:    t.scope.PageLimit,
		Retry:    t.scope.Retry,
		Logger:   t.logger,
	})
	if !projects.Complete() {
		report.Partial = append(report.Partial, projects.Cause.Error())
		t.logger.Warnf(ctx, "Project listing in %s incomplete, skipping migrations there", region)
		return nil
	}

	byName := map[string]domain.Project{}
	current := map[string]domain.Project{}
	for _, p := range projects.Items {
		byName[p.Name] = p
		members := Collect[string](ctx, func(ctx context.Context, req domain.PageRequest) (domain.Page[string], error) {
			return t.projects.ListProjectMembers(ctx, p, req)
		}, CollectOptions[string]{
			Resource: "project members of " + p.Name,
			Region:   region,
			Limit:    t.scope.PageLimit,
			Retry:    t.scope.Retry,
			Logger:   t.logger,
		})
		if !members.Complete() {
			report.Partial = append(report.Partial, members.Cause.Error())
			t.logger.Warnf(ctx, "Member listing of project %s incomplete, skipping migrations in %s", p.Name, region)
			return nil
		}
		for _, arn := range members.Items {
			current[arn] = p
		}
	}

	var jobs []Job
	for _, server := range servers {
		want := server.Tags[t.cfg.ProjectTagKey]
		if want == "" {
			continue
		}
		have, inProject := current[server.ARN]
		if inProject && have.Name == want {
			report.Skipped++
			continue
		}
		target, ok := byName[want]
		if !ok {
			t.logger.Warnf(ctx, "Server %s names project %q which does not exist in %s", server.ID, want, region)
			report.Notices = append(report.Notices, fmt.Sprintf("unknown project %q on server %s", want, server.ID))
			continue
		}

		arns := []string{server.ARN}
		if t.cfg.MigrateAssociated {
			arns = append(arns, associatedARNs(server, volumes, addresses)...)
		}
		var from *domain.Project
		if inProject {
			from = &have
		}
		jobs = append(jobs, Job{
			Action:   domain.ActionMigrateProject,
			Kind:     domain.KindServer,
			Resource: server.ID,
			Region:   region,
			Run: func(ctx context.Context) (string, error) {
				return fmt.Sprintf("%d resources to %s", len(arns), target.Name), t.projects.Migrate(ctx, region, from, target, arns)
			},
		})
	}
	return jobs
}

func associatedARNs(server domain.Server, volumes []domain.Volume, addresses []domain.PublicIP) []string {
	var arns []string
	for _, v := range volumes {
		for _, a := range v.Attachments {
			if a.ServerID == server.ID && v.ARN != "" {
				arns = append(arns, v.ARN)
				break
			}
		}
	}
	for _, addr := range addresses {
		bound := addr.ServerID == server.ID || (addr.ServerID == "" && server.PublicIP != "" && addr.PublicIP == server.PublicIP)
		if bound && addr.ARN != "" {
			arns = append(arns, addr.ARN)
		}
	}
	return arns
}
