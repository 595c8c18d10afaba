package cloudwatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const serviceName = "CloudWatch"

type CloudWatchClientInterface interface {
	ListDashboards(ctx context.Context, params *cloudwatch.ListDashboardsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListDashboardsOutput, error)
	PutDashboard(ctx context.Context, params *cloudwatch.PutDashboardInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutDashboardOutput, error)
	ListMetrics(ctx context.Context, params *cloudwatch.ListMetricsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListMetricsOutput, error)
}

// Dashboards keeps monitoring groups as CloudWatch dashboards in the home
// region and discovers agent-reported mount points per region.
type Dashboards struct {
	clients     shared.ClientFactory[CloudWatchClientInterface]
	deps        shared.Deps
	homeRegion  string
	mountMetric domain.MetricRef
	layout      Layout
}

type Option func(*Dashboards)

// WithMountPointMetric sets the agent metric whose dimension sets are the mount points.
func WithMountPointMetric(ref domain.MetricRef) Option {
	return func(d *Dashboards) { d.mountMetric = ref }
}

func WithLayout(l Layout) Option {
	return func(d *Dashboards) { d.layout = l }
}

func NewDashboards(clients shared.ClientFactory[CloudWatchClientInterface], homeRegion string, deps shared.Deps, opts ...Option) *Dashboards {
	d := &Dashboards{
		clients:     clients,
		deps:        deps,
		homeRegion:  homeRegion,
		mountMetric: domain.MetricRef{Namespace: "CWAgent", Name: "disk_used_percent"},
		layout:      DefaultLayout(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var (
	_ ports.GroupStore          = (*Dashboards)(nil)
	_ ports.MountPointInventory = (*Dashboards)(nil)
)

// ListGroups pages the dashboards of the home region. The request region is
// ignored because dashboards are account-wide.
func (d *Dashboards) ListGroups(ctx context.Context, req domain.PageRequest) (domain.Page[domain.MonitorGroup], error) {
	in := &cloudwatch.ListDashboardsInput{}
	if req.Marker != "" {
		in.NextToken = aws.String(req.Marker)
	}
	out, err := shared.Call(ctx, d.deps, serviceName, "ListDashboards", func(ctx context.Context) (*cloudwatch.ListDashboardsOutput, error) {
		return d.clients(d.homeRegion).ListDashboards(ctx, in)
	})
	if err != nil {
		return domain.Page[domain.MonitorGroup]{}, err
	}

	page := domain.Page[domain.MonitorGroup]{NextMarker: aws.ToString(out.NextToken)}
	for _, entry := range out.DashboardEntries {
		if entry.DashboardName == nil {
			continue
		}
		page.Items = append(page.Items, domain.MonitorGroup{
			Name: *entry.DashboardName,
			ID:   aws.ToString(entry.DashboardArn),
		})
	}
	return page, nil
}

// PutGroup replaces the whole dashboard body with one metric row per member.
func (d *Dashboards) PutGroup(ctx context.Context, group domain.MonitorGroup) error {
	body, err := d.layout.Render(group)
	if err != nil {
		return err
	}
	out, err := shared.Call(ctx, d.deps, serviceName, "PutDashboard", func(ctx context.Context) (*cloudwatch.PutDashboardOutput, error) {
		return d.clients(d.homeRegion).PutDashboard(ctx, &cloudwatch.PutDashboardInput{
			DashboardName: aws.String(group.Name),
			DashboardBody: aws.String(body),
		})
	})
	if err != nil {
		return err
	}
	if len(out.DashboardValidationMessages) > 0 {
		msg := out.DashboardValidationMessages[0]
		return apperrors.New(apperrors.CodeMutationFailed,
			fmt.Sprintf("dashboard %s rejected at %s: %s", group.Name, aws.ToString(msg.DataPath), aws.ToString(msg.Message)))
	}
	d.deps.Logger.Debugf(ctx, "Dashboard %s now charts %d members", group.Name, len(group.Members))
	return nil
}

func (d *Dashboards) ListMountPoints(ctx context.Context, req domain.PageRequest) (domain.Page[domain.GroupMember], error) {
	in := &cloudwatch.ListMetricsInput{
		Namespace:  aws.String(d.mountMetric.Namespace),
		MetricName: aws.String(d.mountMetric.Name),
	}
	if req.Marker != "" {
		in.NextToken = aws.String(req.Marker)
	}
	out, err := shared.Call(ctx, d.deps, serviceName, "ListMetrics", func(ctx context.Context) (*cloudwatch.ListMetricsOutput, error) {
		return d.clients(req.Region).ListMetrics(ctx, in)
	})
	if err != nil {
		return domain.Page[domain.GroupMember]{}, err
	}

	page := domain.Page[domain.GroupMember]{NextMarker: aws.ToString(out.NextToken)}
	for _, metric := range out.Metrics {
		if m, ok := mapMountPoint(metric, req.Region); ok {
			page.Items = append(page.Items, m)
		}
	}
	return page, nil
}

// mapMountPoint keeps only metrics reported per instance; the dimension order
// is normalised so keys of the same mount point compare equal.
func mapMountPoint(metric types.Metric, region string) (domain.GroupMember, bool) {
	m := domain.GroupMember{Kind: domain.KindMountPoint, Region: region}
	for _, dim := range metric.Dimensions {
		if dim.Name == nil {
			continue
		}
		m.Dimensions = append(m.Dimensions, domain.Dimension{Name: *dim.Name, Value: aws.ToString(dim.Value)})
	}
	if m.Value("InstanceId") == "" {
		return domain.GroupMember{}, false
	}
	sort.SliceStable(m.Dimensions, func(i, j int) bool { return m.Dimensions[i].Name < m.Dimensions[j].Name })
	return m, true
}
