package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const TaskNames = "names"

type NamingConfig struct {
	EnvironmentTagKey  string `mapstructure:"environment_tag_key" validate:"required"`
	NonProductionValue string `mapstructure:"non_production_value" validate:"required"`
	ProjectTagKey      string `mapstructure:"project_tag_key" validate:"required"`
	RemarkTagKey       string `mapstructure:"remark_tag_key"`
	RenameServers      bool   `mapstructure:"rename_servers"`
	RenameVolumes      bool   `mapstructure:"rename_volumes"`
	RenamePublicIPs    bool   `mapstructure:"rename_public_ips"`
	WorkerMultiplier   int    `mapstructure:"worker_multiplier" validate:"gte=1,lte=32"`
}

func DefaultNamingConfig() NamingConfig {
	return NamingConfig{
		EnvironmentTagKey:  "environment",
		NonProductionValue: "non-production",
		ProjectTagKey:      "project_code",
		RemarkTagKey:       "remark",
		RenameServers:      true,
		RenameVolumes:      true,
		RenamePublicIPs:    true,
		WorkerMultiplier:   4,
	}
}

// CanonicalName is a computed display name plus the fragments a current name
// must contain to be left alone.
type CanonicalName struct {
	Name      string
	Fragments []string
}

// Satisfied reports whether name already contains every fragment, in any order.
func (c CanonicalName) Satisfied(name string) bool {
	return ContainsAll(name, c.Fragments)
}

func ContainsAll(name string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(name, f) {
			return false
		}
	}
	return true
}

// ServerName builds {env}_{vcpu}c{mem}g_{ip}[_{remark}]_{project}.
func ServerName(cfg NamingConfig, s domain.Server) (CanonicalName, bool) {
	project := s.Tags[cfg.ProjectTagKey]
	if i := strings.LastIndex(project, "-"); i >= 0 {
		project = project[i+1:]
	}
	if project == "" || s.PrivateIP == "" || s.VCPUs <= 0 || s.MemoryMiB <= 0 {
		return CanonicalName{}, false
	}

	env := "pro"
	if s.Tags[cfg.EnvironmentTagKey] == cfg.NonProductionValue {
		env = "dev"
	}
	size := fmt.Sprintf("%dc%sg", s.VCPUs, gib(s.MemoryMiB))

	parts := []string{env, size, s.PrivateIP}
	fragments := []string{env, size, s.PrivateIP, project}
	if remark := s.Tags[cfg.RemarkTagKey]; cfg.RemarkTagKey != "" && remark != "" {
		parts = append(parts, remark)
		fragments = append(fragments, "_"+remark)
	}
	parts = append(parts, project)
	return CanonicalName{Name: strings.Join(parts, "_"), Fragments: fragments}, true
}

// VolumeName builds volume_{type}_{size}G_{device}_{ip} where ip is the
// private address of the server the volume is attached to.
func VolumeName(v domain.Volume, serverIP string) (CanonicalName, bool) {
	att, ok := v.PrimaryAttachment()
	if !ok || serverIP == "" || v.SizeGiB <= 0 {
		return CanonicalName{}, false
	}
	device := strings.TrimPrefix(att.Device, "/dev/")
	size := fmt.Sprintf("%dG", v.SizeGiB)
	parts := nonEmpty("volume", v.VolumeType, size, device, serverIP)
	return CanonicalName{
		Name:      strings.Join(parts, "_"),
		Fragments: nonEmpty(v.VolumeType, size, device, serverIP),
	}, true
}

// PublicIPName builds eip_{domain}_{public ip}_{private ip}_{border group}.
func PublicIPName(p domain.PublicIP) (CanonicalName, bool) {
	if p.PublicIP == "" {
		return CanonicalName{}, false
	}
	parts := nonEmpty("eip", p.Domain, p.PublicIP, p.PrivateIP, p.BorderGroup)
	return CanonicalName{
		Name:      strings.Join(parts, "_"),
		Fragments: nonEmpty(p.PublicIP, p.PrivateIP, p.BorderGroup),
	}, true
}

func gib(mib int64) string {
	if mib%1024 == 0 {
		return strconv.FormatInt(mib/1024, 10)
	}
	return strconv.FormatFloat(float64(mib)/1024, 'f', -1, 64)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NameNormalizer renames servers, volumes and addresses whose names miss a
// fragment of their canonical name.
type NameNormalizer struct {
	cfg        NamingConfig
	scope      Scope
	inventory  ports.Inventory
	renamer    ports.Renamer
	dispatcher *Dispatcher
	logger     ports.Logger
	now        func() time.Time
}

func NewNameNormalizer(cfg NamingConfig, scope Scope, inventory ports.Inventory, renamer ports.Renamer, logger ports.Logger) (*NameNormalizer, error) {
	if inventory == nil || renamer == nil {
		return nil, errors.New(errors.CodeInternal, "name normalizer requires inventory and renamer")
	}
	logger = logger.WithFields(map[string]any{"task": TaskNames})
	return &NameNormalizer{
		cfg:        cfg,
		scope:      scope,
		inventory:  inventory,
		renamer:    renamer,
		dispatcher: NewDispatcher(WorkersFor(cfg.WorkerMultiplier), logger),
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (n *NameNormalizer) Name() string { return TaskNames }

func (n *NameNormalizer) Run(ctx context.Context) (*domain.Report, error) {
	report := domain.NewReport(TaskNames, n.now())

	servers := collectRegions[domain.Server](ctx, n.scope, n.logger, report, domain.KindServer, n.inventory.ListServers, domain.Server.Active)
	var volumes regional[domain.Volume]
	if n.cfg.RenameVolumes {
		volumes = collectRegions[domain.Volume](ctx, n.scope, n.logger, report, domain.KindVolume, n.inventory.ListVolumes, domain.Volume.Active)
	}
	var addresses regional[domain.PublicIP]
	if n.cfg.RenamePublicIPs {
		addresses = collectRegions[domain.PublicIP](ctx, n.scope, n.logger, report, domain.KindPublicIP, n.inventory.ListPublicIPs, domain.PublicIP.Active)
	}

	var jobs []Job
	for _, region := range n.scope.Regions {
		ipByServer := map[string]string{}
		for _, s := range servers[region].Items {
			ipByServer[s.ID] = s.PrivateIP
			if !n.cfg.RenameServers {
				continue
			}
			canonical, ok := ServerName(n.cfg, s)
			jobs = n.appendRename(ctx, jobs, report, region, domain.KindServer, s.ID, s.Name, canonical, ok)
		}

		for _, v := range volumes[region].Items {
			att, _ := v.PrimaryAttachment()
			canonical, ok := VolumeName(v, ipByServer[att.ServerID])
			jobs = n.appendRename(ctx, jobs, report, region, domain.KindVolume, v.ID, v.Name, canonical, ok)
		}

		for _, p := range addresses[region].Items {
			canonical, ok := PublicIPName(p)
			jobs = n.appendRename(ctx, jobs, report, region, domain.KindPublicIP, p.AllocationID, p.Name, canonical, ok)
		}
	}

	report.Add(n.dispatcher.Run(ctx, jobs)...)
	return finish(report, n.now), nil
}

func (n *NameNormalizer) appendRename(ctx context.Context, jobs []Job, report *domain.Report, region string, kind domain.ResourceKind, id, current string, canonical CanonicalName, ok bool) []Job {
	if !ok {
		n.logger.Debugf(ctx, "Not enough attributes to name %s %s, skipping", kind, id)
		report.Skipped++
		return jobs
	}
	if canonical.Satisfied(current) {
		report.Skipped++
		return jobs
	}
	n.logger.Debugf(ctx, "Renaming %s %s from %q to %q", kind, id, current, canonical.Name)
	return append(jobs, Job{
		Action:   domain.ActionRename,
		Kind:     kind,
		Resource: id,
		Region:   region,
		Run: func(ctx context.Context) (string, error) {
			return canonical.Name, n.renamer.Rename(ctx, region, kind, id, canonical.Name)
		},
	})
}
