package ports

import (
	"context"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

type Tagger interface {
	// CreateTags adds or overwrites tags. It never removes any.
	CreateTags(ctx context.Context, region, resourceID string, tags domain.Tags) error
}

type Renamer interface {
	Rename(ctx context.Context, region string, kind domain.ResourceKind, resourceID, name string) error
}

type SnapshotStore interface {
	ListSnapshots(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Snapshot], error)
	CreateSnapshot(ctx context.Context, region, volumeID, name string) (string, error)
	DeleteSnapshot(ctx context.Context, region, snapshotID string) error
}

// GroupStore holds monitoring groups. PutGroup replaces the whole membership.
type GroupStore interface {
	ListGroups(ctx context.Context, req domain.PageRequest) (domain.Page[domain.MonitorGroup], error)
	PutGroup(ctx context.Context, group domain.MonitorGroup) error
}

type ProjectStore interface {
	ListProjects(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Project], error)
	// ListProjectMembers pages the ARNs of the resources in a project.
	ListProjectMembers(ctx context.Context, project domain.Project, req domain.PageRequest) (domain.Page[string], error)
	// Migrate moves resources out of from (when set) and into to.
	Migrate(ctx context.Context, region string, from *domain.Project, to domain.Project, resourceARNs []string) error
}

type OwnerLookup interface {
	// Owner returns the value of tagKey on the target, or "" when it is not tagged.
	Owner(ctx context.Context, target domain.AlarmTarget, tagKey string) (string, error)
}
