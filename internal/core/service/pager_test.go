package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

type resource struct {
	ID     string
	Status string
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsed: time.Second}
}

// pagesOf serves fixed pages keyed by the marker that requests them.
func pagesOf(pages map[string]domain.Page[resource]) (func(context.Context, domain.PageRequest) (domain.Page[resource], error), *[]string) {
	var seen []string
	return func(_ context.Context, req domain.PageRequest) (domain.Page[resource], error) {
		seen = append(seen, req.Marker)
		page, ok := pages[req.Marker]
		if !ok {
			return domain.Page[resource]{}, errors.Newf(errors.CodeInternal, "unexpected marker %q", req.Marker)
		}
		return page, nil
	}, &seen
}

func TestCollect_ConcatenatesPages(t *testing.T) {
	tests := []struct {
		name    string
		pages   map[string]domain.Page[resource]
		want    []string
		markers []string
	}{
		{
			name:    "empty listing",
			pages:   map[string]domain.Page[resource]{"": {}},
			markers: []string{""},
		},
		{
			name: "single page",
			pages: map[string]domain.Page[resource]{
				"": {Items: []resource{{ID: "a"}, {ID: "b"}}},
			},
			want:    []string{"a", "b"},
			markers: []string{""},
		},
		{
			name: "three pages",
			pages: map[string]domain.Page[resource]{
				"":   {Items: []resource{{ID: "a"}}, NextMarker: "m2"},
				"m2": {Items: []resource{{ID: "b"}}, NextMarker: "m3"},
				"m3": {Items: []resource{{ID: "c"}}},
			},
			want:    []string{"a", "b", "c"},
			markers: []string{"", "m2", "m3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, seen := pagesOf(tt.pages)
			inv := Collect[resource](context.Background(), fetch, CollectOptions[resource]{Resource: "test", Retry: fastRetry()})

			require.True(t, inv.Complete())
			var ids []string
			for _, r := range inv.Items {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.markers, *seen)
			assert.Equal(t, len(tt.markers), inv.Pages)
		})
	}
}

func TestCollect_FiltersActiveAcrossPages(t *testing.T) {
	fetch, _ := pagesOf(map[string]domain.Page[resource]{
		"":   {Items: []resource{{ID: "a", Status: "ACTIVE"}}, NextMarker: "m2"},
		"m2": {Items: []resource{{ID: "b", Status: "SHUTOFF"}}},
	})

	inv := Collect[resource](context.Background(), fetch, CollectOptions[resource]{
		Resource: "servers",
		Keep:     func(r resource) bool { return r.Status == "ACTIVE" },
		Retry:    fastRetry(),
	})

	require.True(t, inv.Complete())
	assert.Equal(t, []resource{{ID: "a", Status: "ACTIVE"}}, inv.Items)
}

func TestCollect_AppliesDefaultLimit(t *testing.T) {
	var limits []int32
	fetch := func(_ context.Context, req domain.PageRequest) (domain.Page[resource], error) {
		limits = append(limits, req.Limit)
		return domain.Page[resource]{}, nil
	}

	Collect[resource](context.Background(), fetch, CollectOptions[resource]{Region: "eu-west-1", Retry: fastRetry()})
	Collect[resource](context.Background(), fetch, CollectOptions[resource]{Limit: 50, Retry: fastRetry()})

	assert.Equal(t, []int32{defaultPageLimit, 50}, limits)
}

func TestCollect_RetriesTransientFailure(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, req domain.PageRequest) (domain.Page[resource], error) {
		calls++
		if calls == 1 {
			return domain.Page[resource]{}, errors.New(errors.CodePlatformThrottled, "slow down")
		}
		return domain.Page[resource]{Items: []resource{{ID: "a"}}}, nil
	}

	inv := Collect[resource](context.Background(), fetch, CollectOptions[resource]{Retry: fastRetry()})

	require.True(t, inv.Complete())
	assert.Len(t, inv.Items, 1)
	assert.Equal(t, 2, calls)
}

func TestCollect_PartialKeepsEarlierPages(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{name: "permanent error is not retried", err: errors.New(errors.CodePlatformAuthError, "denied"), wantCalls: 2},
		{name: "transient error exhausts retries", err: errors.New(errors.CodePlatformAPIError, "boom"), wantCalls: 1 + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			fetch := func(_ context.Context, req domain.PageRequest) (domain.Page[resource], error) {
				calls++
				if req.Marker == "" {
					return domain.Page[resource]{Items: []resource{{ID: "a"}}, NextMarker: "m2"}, nil
				}
				return domain.Page[resource]{}, tt.err
			}

			inv := Collect[resource](context.Background(), fetch, CollectOptions[resource]{Resource: "volumes", Retry: fastRetry()})

			assert.False(t, inv.Complete())
			assert.Equal(t, []resource{{ID: "a"}}, inv.Items)
			assert.Equal(t, 1, inv.Pages)
			assert.Equal(t, tt.wantCalls, calls)
			assert.ErrorIs(t, inv.Cause, tt.err)
		})
	}
}

func TestCollect_RepeatedMarkerIsPartial(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, req domain.PageRequest) (domain.Page[resource], error) {
		calls++
		return domain.Page[resource]{Items: []resource{{ID: fmt.Sprint(calls)}}, NextMarker: "loop"}, nil
	}

	inv := Collect[resource](context.Background(), fetch, CollectOptions[resource]{Retry: fastRetry()})

	assert.False(t, inv.Complete())
	assert.True(t, errors.Is(inv.Cause, errors.CodeInventoryPartial))
	assert.Equal(t, 2, calls)
	assert.Len(t, inv.Items, 2)
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(context.Context, domain.PageRequest) (domain.Page[resource], error) {
		t.Fatal("fetch must not be called on a cancelled context")
		return domain.Page[resource]{}, nil
	}
	inv := Collect[resource](ctx, fetch, CollectOptions[resource]{Retry: fastRetry()})

	assert.False(t, inv.Complete())
	assert.True(t, errors.Is(inv.Cause, errors.CodeTimeout))
}
