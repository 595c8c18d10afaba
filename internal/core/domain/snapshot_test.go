package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLedgerOrdersNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewSnapshotLedger([]Snapshot{
		{ID: "snap-2", VolumeID: "vol-a", StartedAt: base.Add(48 * time.Hour)},
		{ID: "snap-0", VolumeID: "vol-a", StartedAt: base},
		{ID: "snap-b", VolumeID: "vol-b", StartedAt: base},
		{ID: "snap-1", VolumeID: "vol-a", StartedAt: base.Add(24 * time.Hour)},
	})

	require.Equal(t, 3, ledger.Count("vol-a"))
	assert.Equal(t, "snap-2", ledger["vol-a"][0].ID)
	assert.Equal(t, "snap-1", ledger["vol-a"][1].ID)

	oldest, ok := ledger.Oldest("vol-a")
	require.True(t, ok)
	assert.Equal(t, "snap-0", oldest.ID)
	assert.Equal(t, ledger["vol-a"][len(ledger["vol-a"])-1], oldest)

	_, ok = ledger.Oldest("vol-missing")
	assert.False(t, ok)
	assert.Zero(t, ledger.Count("vol-missing"))
}

func TestSnapshotLedgerTieBreakIsStable(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewSnapshotLedger([]Snapshot{
		{ID: "snap-a", VolumeID: "vol", StartedAt: at},
		{ID: "snap-c", VolumeID: "vol", StartedAt: at},
		{ID: "snap-b", VolumeID: "vol", StartedAt: at},
	})

	oldest, _ := ledger.Oldest("vol")
	assert.Equal(t, "snap-a", oldest.ID)
}
