package tagging

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	tagapi "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const serviceName = "ResourceGroupsTaggingAPI"

type TaggingClientInterface interface {
	GetResources(ctx context.Context, params *tagapi.GetResourcesInput, optFns ...func(*tagapi.Options)) (*tagapi.GetResourcesOutput, error)
}

// Owners reads owner tags of alarmed resources through the tagging API, which
// covers every service with a single call shape.
type Owners struct {
	clients   shared.ClientFactory[TaggingClientInterface]
	deps      shared.Deps
	accountID shared.AccountResolver
}

func NewOwners(clients shared.ClientFactory[TaggingClientInterface], accountID shared.AccountResolver, deps shared.Deps) *Owners {
	return &Owners{clients: clients, deps: deps, accountID: accountID}
}

var _ ports.OwnerLookup = (*Owners)(nil)

func (o *Owners) Owner(ctx context.Context, target domain.AlarmTarget, tagKey string) (string, error) {
	account := target.AccountID
	if account == "" && o.accountID != nil {
		var err error
		if account, err = o.accountID(ctx); err != nil {
			return "", err
		}
	}
	if account == "" || target.Region == "" {
		return "", apperrors.Newf(apperrors.CodeInvalidParameter, "cannot address %s %s without account and region", target.ResourceType, target.ResourceID)
	}
	resourceARN := ARN(target, account)

	out, err := shared.Call(ctx, o.deps, serviceName, "GetResources", func(ctx context.Context) (*tagapi.GetResourcesOutput, error) {
		return o.clients(target.Region).GetResources(ctx, &tagapi.GetResourcesInput{
			ResourceARNList: []string{resourceARN},
		})
	})
	if err != nil {
		return "", err
	}

	for _, mapping := range out.ResourceTagMappingList {
		if aws.ToString(mapping.ResourceARN) != resourceARN {
			continue
		}
		for _, tag := range mapping.Tags {
			if aws.ToString(tag.Key) == tagKey {
				return aws.ToString(tag.Value), nil
			}
		}
	}
	o.deps.Logger.Debugf(ctx, "Resource %s carries no %s tag", resourceARN, tagKey)
	return "", nil
}

// ARN addresses the alarmed resource. RDS separates type and name with a
// colon, everything else with a slash.
func ARN(target domain.AlarmTarget, accountID string) string {
	sep := "/"
	if target.Service == "rds" {
		sep = ":"
	}
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s%s%s", target.Service, target.Region, accountID, target.ResourceType, sep, target.ResourceID)
}
