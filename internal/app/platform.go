package app

import (
	"context"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

// Platform is every cloud port the handlers use, bound to one set of
// credentials.
type Platform struct {
	Inventory ports.Inventory
	Tagger    ports.Tagger
	Renamer   ports.Renamer
	Snapshots ports.SnapshotStore
	Groups    ports.GroupStore
	Mounts    ports.MountPointInventory
	Projects  ports.ProjectStore
	Owners    ports.OwnerLookup
}

// PlatformFactory builds the platform for the credentials of an invocation.
type PlatformFactory func(ctx context.Context, inv ports.Invocation) (*Platform, error)

func AWSPlatforms(opts aws.Options, logger ports.Logger) PlatformFactory {
	return func(ctx context.Context, inv ports.Invocation) (*Platform, error) {
		creds := aws.Credentials{AccessKey: inv.AccessKey(), SecretKey: inv.SecretKey()}
		provider, err := aws.NewProvider(ctx, opts, creds, logger)
		if err != nil {
			return nil, err
		}
		ec2 := provider.EC2()
		dashboards := provider.Dashboards()
		return &Platform{
			Inventory: provider.Inventory(),
			Tagger:    ec2,
			Renamer:   ec2,
			Snapshots: ec2,
			Groups:    dashboards,
			Mounts:    dashboards,
			Projects:  provider.Projects(),
			Owners:    provider.Owners(),
		}, nil
	}
}
