package ec2

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const (
	serviceName = "EC2"

	maxTagsPerCall    = 50
	maxTypesPerLookup = 100
)

// Client serves servers, volumes, addresses and snapshots from EC2 and applies
// tag, name and snapshot mutations to them.
type Client struct {
	clients   shared.ClientFactory[EC2ClientInterface]
	deps      shared.Deps
	accountID shared.AccountResolver

	mu    sync.Mutex
	sizes map[string]map[types.InstanceType]instanceSize
}

type Option func(*Client)

// WithAccountResolver sets how ARNs learn the account. Without it ARNs carry
// an empty account field.
func WithAccountResolver(r shared.AccountResolver) Option {
	return func(c *Client) { c.accountID = r }
}

func NewClient(clients shared.ClientFactory[EC2ClientInterface], deps shared.Deps, opts ...Option) *Client {
	c := &Client{
		clients: clients,
		deps:    deps,
		sizes:   map[string]map[types.InstanceType]instanceSize{},
		accountID: func(context.Context) (string, error) {
			return "", nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ ports.Tagger        = (*Client)(nil)
	_ ports.Renamer       = (*Client)(nil)
	_ ports.SnapshotStore = (*Client)(nil)
)

func clamp(limit, lo, hi int32) *int32 {
	switch {
	case limit < lo:
		limit = lo
	case limit > hi:
		limit = hi
	}
	return aws.Int32(limit)
}

func token(marker string) *string {
	if marker == "" {
		return nil
	}
	return aws.String(marker)
}

func (c *Client) account(ctx context.Context) string {
	id, err := c.accountID(ctx)
	if err != nil {
		c.deps.Logger.Warnf(ctx, "Proceeding without AWS Account ID due to STS error: %v", err)
		return ""
	}
	return id
}

func (c *Client) ListServers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Server], error) {
	client := c.clients(req.Region)
	out, err := shared.Call(ctx, c.deps, serviceName, "DescribeInstances", func(ctx context.Context) (*ec2.DescribeInstancesOutput, error) {
		return client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			MaxResults: clamp(req.Limit, 5, 1000),
			NextToken:  token(req.Marker),
		})
	})
	if err != nil {
		return domain.Page[domain.Server]{}, err
	}

	sizes, err := c.instanceSizes(ctx, req.Region, client, out.Reservations)
	if err != nil {
		return domain.Page[domain.Server]{}, err
	}

	page := domain.Page[domain.Server]{NextMarker: aws.ToString(out.NextToken)}
	for _, r := range out.Reservations {
		accountID := aws.ToString(r.OwnerId)
		if accountID == "" {
			accountID = c.account(ctx)
		}
		for _, instance := range r.Instances {
			server, ok := mapInstance(instance, req.Region, accountID, sizes)
			if !ok {
				c.deps.Logger.Warnf(ctx, "Skipping EC2 instance without an ID in %s", req.Region)
				continue
			}
			page.Items = append(page.Items, server)
		}
	}
	return page, nil
}

// instanceSizes resolves vCPU and memory for every instance type of a page,
// asking EC2 only for types not seen earlier in this invocation.
func (c *Client) instanceSizes(ctx context.Context, region string, client EC2ClientInterface, reservations []types.Reservation) (map[types.InstanceType]instanceSize, error) {
	c.mu.Lock()
	cache, ok := c.sizes[region]
	if !ok {
		cache = map[types.InstanceType]instanceSize{}
		c.sizes[region] = cache
	}
	missing := unknownTypes(reservations, func(t types.InstanceType) bool { _, ok := cache[t]; return ok })
	c.mu.Unlock()

	for start := 0; start < len(missing); start += maxTypesPerLookup {
		end := min(start+maxTypesPerLookup, len(missing))
		batch := missing[start:end]
		out, err := shared.Call(ctx, c.deps, serviceName, "DescribeInstanceTypes", func(ctx context.Context) (*ec2.DescribeInstanceTypesOutput, error) {
			return client.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{InstanceTypes: batch})
		})
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		for _, info := range out.InstanceTypes {
			cache[info.InstanceType] = mapInstanceType(info)
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[types.InstanceType]instanceSize, len(cache))
	for k, v := range cache {
		snapshot[k] = v
	}
	return snapshot, nil
}

func (c *Client) ListVolumes(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Volume], error) {
	out, err := shared.Call(ctx, c.deps, serviceName, "DescribeVolumes", func(ctx context.Context) (*ec2.DescribeVolumesOutput, error) {
		return c.clients(req.Region).DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
			MaxResults: clamp(req.Limit, 5, 500),
			NextToken:  token(req.Marker),
		})
	})
	if err != nil {
		return domain.Page[domain.Volume]{}, err
	}

	accountID := c.account(ctx)
	page := domain.Page[domain.Volume]{NextMarker: aws.ToString(out.NextToken)}
	for _, v := range out.Volumes {
		if vol, ok := mapVolume(v, req.Region, accountID); ok {
			page.Items = append(page.Items, vol)
		}
	}
	return page, nil
}

// ListPublicIPs returns every Elastic IP of the region. DescribeAddresses is
// not paginated so the page never carries a marker.
func (c *Client) ListPublicIPs(ctx context.Context, req domain.PageRequest) (domain.Page[domain.PublicIP], error) {
	out, err := shared.Call(ctx, c.deps, serviceName, "DescribeAddresses", func(ctx context.Context) (*ec2.DescribeAddressesOutput, error) {
		return c.clients(req.Region).DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	})
	if err != nil {
		return domain.Page[domain.PublicIP]{}, err
	}

	accountID := c.account(ctx)
	var page domain.Page[domain.PublicIP]
	for _, a := range out.Addresses {
		if p, ok := mapAddress(a, req.Region, accountID); ok {
			page.Items = append(page.Items, p)
		}
	}
	return page, nil
}

func (c *Client) ListSnapshots(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Snapshot], error) {
	out, err := shared.Call(ctx, c.deps, serviceName, "DescribeSnapshots", func(ctx context.Context) (*ec2.DescribeSnapshotsOutput, error) {
		return c.clients(req.Region).DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{
			OwnerIds:   []string{"self"},
			MaxResults: clamp(req.Limit, 5, 1000),
			NextToken:  token(req.Marker),
		})
	})
	if err != nil {
		return domain.Page[domain.Snapshot]{}, err
	}

	page := domain.Page[domain.Snapshot]{NextMarker: aws.ToString(out.NextToken)}
	for _, s := range out.Snapshots {
		if snap, ok := mapSnapshot(s, req.Region); ok {
			page.Items = append(page.Items, snap)
		}
	}
	return page, nil
}

func (c *Client) CreateSnapshot(ctx context.Context, region, volumeID, name string) (string, error) {
	out, err := shared.Call(ctx, c.deps, serviceName, "CreateSnapshot", func(ctx context.Context) (*ec2.CreateSnapshotOutput, error) {
		return c.clients(region).CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
			VolumeId:    aws.String(volumeID),
			Description: aws.String(name),
			TagSpecifications: []types.TagSpecification{{
				ResourceType: types.ResourceTypeSnapshot,
				Tags:         []types.Tag{{Key: aws.String(domain.TagName), Value: aws.String(name)}},
			}},
		})
	})
	if err != nil {
		return "", err
	}
	if out.SnapshotId == nil {
		return "", apperrors.New(apperrors.CodePlatformAPIError, fmt.Sprintf("CreateSnapshot for %s returned no snapshot ID", volumeID))
	}
	return *out.SnapshotId, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, region, snapshotID string) error {
	_, err := shared.Call(ctx, c.deps, serviceName, "DeleteSnapshot", func(ctx context.Context) (*ec2.DeleteSnapshotOutput, error) {
		return c.clients(region).DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{SnapshotId: aws.String(snapshotID)})
	})
	return err
}

func (c *Client) CreateTags(ctx context.Context, region, resourceID string, tags domain.Tags) error {
	ec2Tags := toEC2Tags(tags)
	for start := 0; start < len(ec2Tags); start += maxTagsPerCall {
		batch := ec2Tags[start:min(start+maxTagsPerCall, len(ec2Tags))]
		_, err := shared.Call(ctx, c.deps, serviceName, "CreateTags", func(ctx context.Context) (*ec2.CreateTagsOutput, error) {
			return c.clients(region).CreateTags(ctx, &ec2.CreateTagsInput{
				Resources: []string{resourceID},
				Tags:      batch,
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Rename sets the Name tag, which is what the console shows as the name of
// instances, volumes and addresses alike.
func (c *Client) Rename(ctx context.Context, region string, kind domain.ResourceKind, resourceID, name string) error {
	c.deps.Logger.Debugf(ctx, "Renaming %s %s to %s", kind, resourceID, name)
	return c.CreateTags(ctx, region, resourceID, domain.Tags{domain.TagName: name})
}
