package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cwsdk "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	ec2sdk "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdssdk "github.com/aws/aws-sdk-go-v2/service/rds"
	rgsdk "github.com/aws/aws-sdk-go-v2/service/resourcegroups"
	tagsdk "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/cloudwatch"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/ec2"
	awserrors "github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/rds"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/resourcegroups"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/tagging"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// Options configures the adapters built by a Provider.
type Options struct {
	HomeRegion  string            `mapstructure:"home_region" validate:"required"`
	RPS         int               `mapstructure:"rps" validate:"gte=1,lte=100"`
	MaxAttempts int               `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	Dashboard   cloudwatch.Layout `mapstructure:"dashboard"`
	MountMetric domain.MetricRef  `mapstructure:"mount_metric"`
}

func DefaultOptions() Options {
	return Options{
		HomeRegion:  "us-east-1",
		RPS:         limiter.DefaultRPS,
		MaxAttempts: 3,
		Dashboard:   cloudwatch.DefaultLayout(),
		MountMetric: domain.MetricRef{Namespace: "CWAgent", Name: "disk_used_percent"},
	}
}

// Credentials are the keys handed over by the invocation. Empty keys fall
// back to the default credential chain.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Provider owns the SDK configuration of one invocation and hands out the
// service adapters built on it. Clients are created lazily per region.
type Provider struct {
	cfg    aws.Config
	opts   Options
	deps   shared.Deps
	logger ports.Logger

	stsClient   shared.STSClientInterface
	accountOnce sync.Once
	account     string
	accountErr  error

	ec2Clients *regionCache[ec2.EC2ClientInterface]
	rdsClients *regionCache[rds.RDSClientInterface]
	cwClients  *regionCache[cloudwatch.CloudWatchClientInterface]
	rgClients  *regionCache[resourcegroups.ResourceGroupsClientInterface]
	tagClients *regionCache[tagging.TaggingClientInterface]
}

type ProviderOption func(*Provider)

// WithSTSClient replaces the client used to resolve the account.
func WithSTSClient(c shared.STSClientInterface) ProviderOption {
	return func(p *Provider) { p.stsClient = c }
}

// NewProvider loads the SDK configuration for the invocation's credentials.
func NewProvider(ctx context.Context, opts Options, creds Credentials, logger ports.Logger, popts ...ProviderOption) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for AWS Provider")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.HomeRegion),
		config.WithRetryMaxAttempts(opts.MaxAttempts),
	}
	if creds.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to load default AWS config")
	}
	return NewProviderFromConfig(cfg, opts, logger, popts...), nil
}

func NewProviderFromConfig(cfg aws.Config, opts Options, logger ports.Logger, popts ...ProviderOption) *Provider {
	logger = logger.WithFields(map[string]any{"provider": "aws"})
	p := &Provider{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		deps: shared.Deps{
			Limiter:      limiter.New(opts.RPS, logger),
			ErrorHandler: &awserrors.DefaultErrorHandler{},
			Logger:       logger,
		},
		ec2Clients: newRegionCache(cfg, func(c aws.Config) ec2.EC2ClientInterface { return ec2sdk.NewFromConfig(c) }),
		rdsClients: newRegionCache(cfg, func(c aws.Config) rds.RDSClientInterface { return rdssdk.NewFromConfig(c) }),
		cwClients:  newRegionCache(cfg, func(c aws.Config) cloudwatch.CloudWatchClientInterface { return cwsdk.NewFromConfig(c) }),
		rgClients:  newRegionCache(cfg, func(c aws.Config) resourcegroups.ResourceGroupsClientInterface { return rgsdk.NewFromConfig(c) }),
		tagClients: newRegionCache(cfg, func(c aws.Config) tagging.TaggingClientInterface { return tagsdk.NewFromConfig(c) }),
	}
	for _, opt := range popts {
		opt(p)
	}
	if p.stsClient == nil {
		p.stsClient = sts.NewFromConfig(cfg)
	}
	return p
}

// AccountID resolves the caller's account once per provider.
func (p *Provider) AccountID(ctx context.Context) (string, error) {
	p.accountOnce.Do(func() {
		out, err := shared.Call(ctx, p.deps, "STS", "GetCallerIdentity", func(ctx context.Context) (*sts.GetCallerIdentityOutput, error) {
			return p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		})
		if err != nil {
			p.accountErr = err
			return
		}
		p.account = aws.ToString(out.Account)
		p.logger.Debugf(ctx, "Resolved account %s", p.account)
	})
	return p.account, p.accountErr
}

// EC2 serves tagging, renaming and snapshots.
func (p *Provider) EC2() *ec2.Client {
	return ec2.NewClient(p.ec2Clients.get, p.deps, ec2.WithAccountResolver(p.AccountID))
}

func (p *Provider) Inventory() ports.Inventory {
	return inventory{
		Client:    p.EC2(),
		databases: rds.NewClient(p.rdsClients.get, p.deps),
	}
}

func (p *Provider) Dashboards() *cloudwatch.Dashboards {
	return cloudwatch.NewDashboards(p.cwClients.get, p.opts.HomeRegion, p.deps,
		cloudwatch.WithLayout(p.opts.Dashboard),
		cloudwatch.WithMountPointMetric(p.opts.MountMetric))
}

func (p *Provider) Projects() *resourcegroups.Projects {
	return resourcegroups.NewProjects(p.rgClients.get, p.deps)
}

func (p *Provider) Owners() *tagging.Owners {
	return tagging.NewOwners(p.tagClients.get, p.AccountID, p.deps)
}

// inventory joins the EC2 listings with the RDS one.
type inventory struct {
	*ec2.Client
	databases *rds.Client
}

func (i inventory) ListDatabases(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Database], error) {
	return i.databases.ListDatabases(ctx, req)
}

type regionCache[C any] struct {
	base  aws.Config
	build func(aws.Config) C

	mu      sync.Mutex
	clients map[string]C
}

func newRegionCache[C any](base aws.Config, build func(aws.Config) C) *regionCache[C] {
	return &regionCache[C]{base: base, build: build, clients: map[string]C{}}
}

// get returns the client for region, building it on first use. An empty
// region means the configured one.
func (c *regionCache[C]) get(region string) C {
	if region == "" {
		region = c.base.Region
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[region]; ok {
		return client
	}
	cfg := c.base.Copy()
	cfg.Region = region
	client := c.build(cfg)
	c.clients[region] = client
	return client
}
