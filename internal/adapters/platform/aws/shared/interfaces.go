package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

// RateLimiter defines an interface for rate-limiting AWS API calls.
type RateLimiter interface {
	// Wait blocks until the rate limit allows proceeding, or returns an error.
	Wait(ctx context.Context, logger ports.Logger) error
}

// ErrorHandler maps SDK errors to application errors.
type ErrorHandler interface {
	Handle(service, operation string, err error, ctx context.Context) error
}

type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ClientFactory returns the client of one service for a region. Implementations
// cache clients so a region is only configured once per invocation.
type ClientFactory[C any] func(region string) C

// AccountResolver returns the account the credentials belong to.
type AccountResolver func(ctx context.Context) (string, error)

// Deps bundles what every service adapter needs besides its client.
type Deps struct {
	Limiter      RateLimiter
	ErrorHandler ErrorHandler
	Logger       ports.Logger
}

// Call waits for the limiter, runs fn and maps its error.
func Call[T any](ctx context.Context, d Deps, service, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := d.Limiter.Wait(ctx, d.Logger); err != nil {
		return zero, d.ErrorHandler.Handle(service, operation, err, ctx)
	}
	out, err := fn(ctx)
	if err != nil {
		return zero, d.ErrorHandler.Handle(service, operation, err, ctx)
	}
	return out, nil
}
