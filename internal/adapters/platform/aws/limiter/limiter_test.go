package limiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		rps  int
		want int
	}{
		{name: "zero uses default", rps: 0, want: DefaultRPS},
		{name: "in range", rps: 5, want: 5},
		{name: "too high", rps: 1000, want: DefaultRPS},
		{name: "negative", rps: -1, want: DefaultRPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.rps, log.NewNop()).RPS())
		})
	}
}

func TestWait(t *testing.T) {
	l := New(1, log.NewNop())
	assert.NoError(t, l.Wait(context.Background(), log.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, log.NewNop()))
}
