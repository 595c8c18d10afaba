package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

const defaultPageLimit int32 = 200

// RetryPolicy bounds the retries of a single page request.
type RetryPolicy struct {
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	InitialInterval time.Duration `mapstructure:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gte=0"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed" validate:"gte=0"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsed:      30 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = p.MaxElapsed
	exp.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

type CollectOptions[T any] struct {
	// Resource names the listing in logs and partial causes.
	Resource string
	Region   string
	Limit    int32
	// Keep filters items while they are accumulated. Nil keeps everything.
	Keep   func(T) bool
	Retry  RetryPolicy
	Logger ports.Logger
}

// Collect walks a marker-paginated listing until the endpoint stops returning
// a next marker. A page that still fails after its retries ends the walk and
// the items gathered so far are returned as a partial inventory.
func Collect[T any](ctx context.Context, fetch ports.PageFetcher[T], opts CollectOptions[T]) domain.Inventory[T] {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.WithFields(map[string]any{"listing": opts.Resource, "region": opts.Region})
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var (
		items  []T
		marker string
		pages  int
	)
	for {
		if err := ctx.Err(); err != nil {
			return domain.Partial(items, pages, errors.Wrap(err, errors.CodeTimeout, fmt.Sprintf("listing %s interrupted", opts.Resource)))
		}

		req := domain.PageRequest{Region: opts.Region, Limit: limit, Marker: marker}
		page, err := fetchPage(ctx, fetch, req, opts.Retry, logger)
		if err != nil {
			logger.Errorf(ctx, err, "Listing %s stopped after %d pages with %d items", opts.Resource, pages, len(items))
			return domain.Partial(items, pages, errors.Wrap(err, errors.CodeInventoryPartial, fmt.Sprintf("listing %s incomplete", opts.Resource)))
		}
		pages++

		for _, item := range page.Items {
			if opts.Keep == nil || opts.Keep(item) {
				items = append(items, item)
			}
		}

		if page.NextMarker == "" {
			logger.Debugf(ctx, "Listed %d %s items over %d pages", len(items), opts.Resource, pages)
			return domain.Complete(items, pages)
		}
		if page.NextMarker == marker {
			cause := errors.Newf(errors.CodeInventoryPartial, "listing %s returned marker %q twice", opts.Resource, marker)
			logger.Warnf(ctx, "%s", cause.Message)
			return domain.Partial(items, pages, cause)
		}
		marker = page.NextMarker
	}
}

func fetchPage[T any](ctx context.Context, fetch ports.PageFetcher[T], req domain.PageRequest, policy RetryPolicy, logger ports.Logger) (domain.Page[T], error) {
	var page domain.Page[T]
	attempt := 0
	op := func() error {
		attempt++
		p, err := fetch(ctx, req)
		if err != nil {
			if !errors.GetCode(err).Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warnf(ctx, "Page request (marker %q) failed on attempt %d, retrying in %s: %v", req.Marker, attempt, wait, err)
	}

	if err := backoff.RetryNotify(op, policy.backOff(ctx), notify); err != nil {
		return domain.Page[T]{}, err
	}
	return page, nil
}
