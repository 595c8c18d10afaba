package domain

import (
	"sort"
	"time"
)

type Snapshot struct {
	ID        string
	VolumeID  string
	Region    string
	Name      string
	State     string
	StartedAt time.Time
}

// SnapshotLedger groups snapshots by volume, newest first. The last element
// of each list is the oldest snapshot and is the one rotation deletes.
type SnapshotLedger map[string][]Snapshot

func NewSnapshotLedger(snapshots []Snapshot) SnapshotLedger {
	ledger := SnapshotLedger{}
	for _, s := range snapshots {
		ledger[s.VolumeID] = append(ledger[s.VolumeID], s)
	}
	for _, list := range ledger {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].StartedAt.Equal(list[j].StartedAt) {
				return list[i].ID > list[j].ID
			}
			return list[i].StartedAt.After(list[j].StartedAt)
		})
	}
	return ledger
}

func (l SnapshotLedger) Count(volumeID string) int {
	return len(l[volumeID])
}

// Oldest returns the last listed snapshot of the volume.
func (l SnapshotLedger) Oldest(volumeID string) (Snapshot, bool) {
	list := l[volumeID]
	if len(list) == 0 {
		return Snapshot{}, false
	}
	return list[len(list)-1], true
}
