package ports

import (
	"context"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

// PageFetcher returns one page of a marker-paginated listing.
type PageFetcher[T any] func(ctx context.Context, req domain.PageRequest) (domain.Page[T], error)

//go:generate mockery --name Inventory --output ../../../mocks --outpkg mocks --case underscore
type Inventory interface {
	ListServers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Server], error)
	ListVolumes(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Volume], error)
	ListPublicIPs(ctx context.Context, req domain.PageRequest) (domain.Page[domain.PublicIP], error)
	ListDatabases(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Database], error)
}

// MountPointInventory lists agent-reported filesystems as compound group members.
type MountPointInventory interface {
	ListMountPoints(ctx context.Context, req domain.PageRequest) (domain.Page[domain.GroupMember], error)
}
