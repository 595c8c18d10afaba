package rds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

const serviceName = "RDS"

type RDSClientInterface interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// Client lists database instances.
type Client struct {
	clients shared.ClientFactory[RDSClientInterface]
	deps    shared.Deps
}

func NewClient(clients shared.ClientFactory[RDSClientInterface], deps shared.Deps) *Client {
	return &Client{clients: clients, deps: deps}
}

func (c *Client) ListDatabases(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Database], error) {
	limit := req.Limit
	if limit < 20 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	in := &rds.DescribeDBInstancesInput{MaxRecords: aws.Int32(limit)}
	if req.Marker != "" {
		in.Marker = aws.String(req.Marker)
	}

	out, err := shared.Call(ctx, c.deps, serviceName, "DescribeDBInstances", func(ctx context.Context) (*rds.DescribeDBInstancesOutput, error) {
		return c.clients(req.Region).DescribeDBInstances(ctx, in)
	})
	if err != nil {
		return domain.Page[domain.Database]{}, err
	}

	page := domain.Page[domain.Database]{NextMarker: aws.ToString(out.Marker)}
	for _, db := range out.DBInstances {
		if db.DBInstanceIdentifier == nil {
			continue
		}
		page.Items = append(page.Items, mapDBInstance(db, req.Region))
	}
	return page, nil
}

func mapDBInstance(db types.DBInstance, region string) domain.Database {
	tags := make(domain.Tags, len(db.TagList))
	for _, t := range db.TagList {
		if t.Key != nil {
			tags[*t.Key] = aws.ToString(t.Value)
		}
	}
	return domain.Database{
		ID:     aws.ToString(db.DBInstanceIdentifier),
		ARN:    aws.ToString(db.DBInstanceArn),
		Region: region,
		Status: aws.ToString(db.DBInstanceStatus),
		Engine: aws.ToString(db.Engine),
		Tags:   tags,
	}
}
