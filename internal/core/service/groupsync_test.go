package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/mocks"
)

func newGroupFixture(t *testing.T) (*GroupSynchronizer, *mocks.MockGroupStore, *mocks.MockInventory, *mocks.MockMountPointInventory) {
	t.Helper()
	groups := &mocks.MockGroupStore{}
	inventory := &mocks.MockInventory{}
	mounts := &mocks.MockMountPointInventory{}
	g, err := NewGroupSynchronizer(DefaultGroupSyncConfig(), Scope{Regions: []string{"r1"}, Retry: fastRetry()}, groups, inventory, mounts, mocks.NewPermissiveLogger())
	require.NoError(t, err)
	return g, groups, inventory, mounts
}

func TestGroupSynchronizer_RewritesBoundGroups(t *testing.T) {
	g, groups, inventory, mounts := newGroupFixture(t)

	groups.On("ListGroups", mock.Anything, mock.Anything).Return(domain.Page[domain.MonitorGroup]{Items: []domain.MonitorGroup{
		{Name: "default"},
		{Name: "all_ecs", ID: "all_ecs"},
		{Name: "all_mountpoint", ID: "all_mountpoint"},
		{Name: "team-dashboard"},
	}}, nil)
	inventory.On("ListServers", mock.Anything, mock.Anything).Return(domain.Page[domain.Server]{Items: []domain.Server{
		{ID: "i-2", Status: domain.ServerStatusActive},
		{ID: "i-1", Status: "stopped"},
		{ID: "i-3", Status: domain.ServerStatusTerminated},
	}}, nil)
	mounts.On("ListMountPoints", mock.Anything, mock.Anything).Return(domain.Page[domain.GroupMember]{Items: []domain.GroupMember{
		{Kind: domain.KindMountPoint, Region: "r1", Dimensions: []domain.Dimension{{Name: "InstanceId", Value: "i-2"}, {Name: "path", Value: "/"}, {Name: "device", Value: "nvme0n1p1"}}},
		{Kind: domain.KindMountPoint, Region: "r1", Dimensions: []domain.Dimension{{Name: "InstanceId", Value: "i-2"}, {Name: "path", Value: "/var/lib/docker"}, {Name: "device", Value: "nvme1n1"}}},
	}}, nil)

	var (
		mu     sync.Mutex
		pushed []domain.MonitorGroup
	)
	groups.On("PutGroup", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		pushed = append(pushed, args.Get(1).(domain.MonitorGroup))
	}).Return(nil)

	report, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	ok, failed := report.Count(domain.ActionPutGroup)
	assert.Equal(t, 2, ok)
	assert.Zero(t, failed)

	byName := map[string]domain.MonitorGroup{}
	for _, p := range pushed {
		byName[p.Name] = p
	}
	ecs := byName["all_ecs"]
	require.Len(t, ecs.Members, 2)
	assert.Equal(t, "InstanceId=i-1", ecs.Members[0].Key())
	assert.Equal(t, "InstanceId=i-2", ecs.Members[1].Key())
	assert.Equal(t, domain.MetricRef{Namespace: "AWS/EC2", Name: "CPUUtilization"}, ecs.Metric)

	mp := byName["all_mountpoint"]
	require.Len(t, mp.Members, 1)
	assert.Equal(t, "/", mp.Members[0].Value("path"))
}

func TestGroupSynchronizer_PartialInventoryLeavesGroupAlone(t *testing.T) {
	g, groups, inventory, _ := newGroupFixture(t)

	groups.On("ListGroups", mock.Anything, mock.Anything).Return(domain.Page[domain.MonitorGroup]{Items: []domain.MonitorGroup{{Name: "all_evs"}}}, nil)
	inventory.On("ListVolumes", mock.Anything, mock.MatchedBy(func(r domain.PageRequest) bool { return r.Marker == "" })).
		Return(domain.Page[domain.Volume]{Items: []domain.Volume{{ID: "vol-1"}}, NextMarker: "m2"}, nil)
	inventory.On("ListVolumes", mock.Anything, mock.MatchedBy(func(r domain.PageRequest) bool { return r.Marker == "m2" })).
		Return(domain.Page[domain.Volume]{}, errors.New(errors.CodePlatformAuthError, "denied"))

	report, err := g.Run(context.Background())
	require.NoError(t, err)

	groups.AssertNotCalled(t, "PutGroup", mock.Anything, mock.Anything)
	_, failed := report.Count(domain.ActionPutGroup)
	assert.Equal(t, 1, failed)
	assert.Len(t, report.Partial, 1)
}

func TestGroupSynchronizer_NoGroups(t *testing.T) {
	g, groups, inventory, _ := newGroupFixture(t)
	groups.On("ListGroups", mock.Anything, mock.Anything).Return(domain.Page[domain.MonitorGroup]{}, nil)

	report, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	inventory.AssertNotCalled(t, "ListServers", mock.Anything, mock.Anything)
}

func TestGroupSynchronizer_KindListedOncePerRun(t *testing.T) {
	cfg := DefaultGroupSyncConfig()
	cfg.Bindings["ecs_cpu_copy"] = GroupBinding{Kind: domain.KindServer, Namespace: "AWS/EC2", Metric: "NetworkIn"}
	groups := &mocks.MockGroupStore{}
	inventory := &mocks.MockInventory{}
	g, err := NewGroupSynchronizer(cfg, Scope{Regions: []string{"r1"}, Retry: fastRetry()}, groups, inventory, &mocks.MockMountPointInventory{}, mocks.NewPermissiveLogger())
	require.NoError(t, err)

	groups.On("ListGroups", mock.Anything, mock.Anything).Return(domain.Page[domain.MonitorGroup]{Items: []domain.MonitorGroup{{Name: "all_ecs"}, {Name: "ecs_cpu_copy"}}}, nil)
	groups.On("PutGroup", mock.Anything, mock.Anything).Return(nil).Twice()
	inventory.On("ListServers", mock.Anything, mock.Anything).Return(domain.Page[domain.Server]{Items: []domain.Server{{ID: "i-1", Status: domain.ServerStatusActive}}}, nil).Once()

	_, err = g.Run(context.Background())
	require.NoError(t, err)
	inventory.AssertNumberOfCalls(t, "ListServers", 1)
	groups.AssertExpectations(t)
}
