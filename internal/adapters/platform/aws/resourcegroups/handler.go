package resourcegroups

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroups"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroups/types"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const (
	serviceName = "ResourceGroups"

	// GroupResources and UngroupResources accept at most this many ARNs.
	maxARNsPerCall = 10
)

type ResourceGroupsClientInterface interface {
	ListGroups(ctx context.Context, params *resourcegroups.ListGroupsInput, optFns ...func(*resourcegroups.Options)) (*resourcegroups.ListGroupsOutput, error)
	ListGroupResources(ctx context.Context, params *resourcegroups.ListGroupResourcesInput, optFns ...func(*resourcegroups.Options)) (*resourcegroups.ListGroupResourcesOutput, error)
	GroupResources(ctx context.Context, params *resourcegroups.GroupResourcesInput, optFns ...func(*resourcegroups.Options)) (*resourcegroups.GroupResourcesOutput, error)
	UngroupResources(ctx context.Context, params *resourcegroups.UngroupResourcesInput, optFns ...func(*resourcegroups.Options)) (*resourcegroups.UngroupResourcesOutput, error)
}

// Projects maps enterprise projects onto regional resource groups.
type Projects struct {
	clients shared.ClientFactory[ResourceGroupsClientInterface]
	deps    shared.Deps
}

func NewProjects(clients shared.ClientFactory[ResourceGroupsClientInterface], deps shared.Deps) *Projects {
	return &Projects{clients: clients, deps: deps}
}

var _ ports.ProjectStore = (*Projects)(nil)

func limit(l int32) *int32 {
	switch {
	case l < 1:
		l = 1
	case l > 50:
		l = 50
	}
	return aws.Int32(l)
}

func token(marker string) *string {
	if marker == "" {
		return nil
	}
	return aws.String(marker)
}

func (p *Projects) ListProjects(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Project], error) {
	out, err := shared.Call(ctx, p.deps, serviceName, "ListGroups", func(ctx context.Context) (*resourcegroups.ListGroupsOutput, error) {
		return p.clients(req.Region).ListGroups(ctx, &resourcegroups.ListGroupsInput{
			MaxResults: limit(req.Limit),
			NextToken:  token(req.Marker),
		})
	})
	if err != nil {
		return domain.Page[domain.Project]{}, err
	}

	page := domain.Page[domain.Project]{NextMarker: aws.ToString(out.NextToken)}
	for _, g := range out.GroupIdentifiers {
		if g.GroupName == nil {
			continue
		}
		page.Items = append(page.Items, domain.Project{
			Name:   *g.GroupName,
			ID:     aws.ToString(g.GroupArn),
			Region: req.Region,
		})
	}
	return page, nil
}

func (p *Projects) ListProjectMembers(ctx context.Context, project domain.Project, req domain.PageRequest) (domain.Page[string], error) {
	region := project.Region
	if region == "" {
		region = req.Region
	}
	out, err := shared.Call(ctx, p.deps, serviceName, "ListGroupResources", func(ctx context.Context) (*resourcegroups.ListGroupResourcesOutput, error) {
		return p.clients(region).ListGroupResources(ctx, &resourcegroups.ListGroupResourcesInput{
			Group:      aws.String(groupRef(project)),
			MaxResults: limit(req.Limit),
			NextToken:  token(req.Marker),
		})
	})
	if err != nil {
		return domain.Page[string]{}, err
	}

	page := domain.Page[string]{NextMarker: aws.ToString(out.NextToken)}
	for _, item := range out.Resources {
		if item.Identifier != nil && item.Identifier.ResourceArn != nil {
			page.Items = append(page.Items, *item.Identifier.ResourceArn)
		}
	}
	return page, nil
}

// Migrate ungroups the resources from their current project before adding
// them to the target, in batches the API accepts.
func (p *Projects) Migrate(ctx context.Context, region string, from *domain.Project, to domain.Project, resourceARNs []string) error {
	if len(resourceARNs) == 0 {
		return nil
	}
	api := p.clients(region)

	for start := 0; start < len(resourceARNs); start += maxARNsPerCall {
		batch := resourceARNs[start:min(start+maxARNsPerCall, len(resourceARNs))]

		if from != nil {
			out, err := shared.Call(ctx, p.deps, serviceName, "UngroupResources", func(ctx context.Context) (*resourcegroups.UngroupResourcesOutput, error) {
				return api.UngroupResources(ctx, &resourcegroups.UngroupResourcesInput{
					Group:        aws.String(groupRef(*from)),
					ResourceArns: batch,
				})
			})
			if err != nil {
				return err
			}
			if err := failed("remove from "+from.Name, out.Failed); err != nil {
				return err
			}
		}

		out, err := shared.Call(ctx, p.deps, serviceName, "GroupResources", func(ctx context.Context) (*resourcegroups.GroupResourcesOutput, error) {
			return api.GroupResources(ctx, &resourcegroups.GroupResourcesInput{
				Group:        aws.String(groupRef(to)),
				ResourceArns: batch,
			})
		})
		if err != nil {
			return err
		}
		if err := failed("add to "+to.Name, out.Failed); err != nil {
			return err
		}
	}

	p.deps.Logger.Debugf(ctx, "Moved %d resources into project %s in %s", len(resourceARNs), to.Name, region)
	return nil
}

func groupRef(project domain.Project) string {
	if project.ID != "" {
		return project.ID
	}
	return project.Name
}

func failed(op string, items []types.FailedResource) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(items))
	for _, f := range items {
		msgs = append(msgs, fmt.Sprintf("%s: %s", aws.ToString(f.ResourceArn), aws.ToString(f.ErrorMessage)))
	}
	return apperrors.Newf(apperrors.CodeMutationFailed, "failed to %s for %d resources: %s", op, len(items), strings.Join(msgs, "; "))
}
