package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
)

// MockLogger records log calls. Tests usually register every method with Maybe().
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debugf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Infof(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Warnf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Errorf(ctx context.Context, err error, format string, args ...any) {
	m.Called(ctx, err, format, args)
}

func (m *MockLogger) WithFields(fields map[string]any) ports.Logger {
	args := m.Called(fields)
	if l, ok := args.Get(0).(ports.Logger); ok {
		return l
	}
	return m
}

// NewPermissiveLogger returns a MockLogger that accepts any call.
func NewPermissiveLogger() *MockLogger {
	l := &MockLogger{}
	l.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Maybe()
	l.On("Infof", mock.Anything, mock.Anything, mock.Anything).Maybe()
	l.On("Warnf", mock.Anything, mock.Anything, mock.Anything).Maybe()
	l.On("Errorf", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	l.On("WithFields", mock.Anything).Return(l).Maybe()
	return l
}

type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) ListServers(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Server], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.Server]), args.Error(1)
}

func (m *MockInventory) ListVolumes(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Volume], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.Volume]), args.Error(1)
}

func (m *MockInventory) ListPublicIPs(ctx context.Context, req domain.PageRequest) (domain.Page[domain.PublicIP], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.PublicIP]), args.Error(1)
}

func (m *MockInventory) ListDatabases(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Database], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.Database]), args.Error(1)
}

type MockMountPointInventory struct {
	mock.Mock
}

func (m *MockMountPointInventory) ListMountPoints(ctx context.Context, req domain.PageRequest) (domain.Page[domain.GroupMember], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.GroupMember]), args.Error(1)
}

type MockTagger struct {
	mock.Mock
}

func (m *MockTagger) CreateTags(ctx context.Context, region, resourceID string, tags domain.Tags) error {
	return m.Called(ctx, region, resourceID, tags).Error(0)
}

type MockRenamer struct {
	mock.Mock
}

func (m *MockRenamer) Rename(ctx context.Context, region string, kind domain.ResourceKind, resourceID, name string) error {
	return m.Called(ctx, region, kind, resourceID, name).Error(0)
}

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) ListSnapshots(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Snapshot], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.Snapshot]), args.Error(1)
}

func (m *MockSnapshotStore) CreateSnapshot(ctx context.Context, region, volumeID, name string) (string, error) {
	args := m.Called(ctx, region, volumeID, name)
	return args.String(0), args.Error(1)
}

func (m *MockSnapshotStore) DeleteSnapshot(ctx context.Context, region, snapshotID string) error {
	return m.Called(ctx, region, snapshotID).Error(0)
}

type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) ListGroups(ctx context.Context, req domain.PageRequest) (domain.Page[domain.MonitorGroup], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.MonitorGroup]), args.Error(1)
}

func (m *MockGroupStore) PutGroup(ctx context.Context, group domain.MonitorGroup) error {
	return m.Called(ctx, group).Error(0)
}

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) ListProjects(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Project], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Page[domain.Project]), args.Error(1)
}

func (m *MockProjectStore) ListProjectMembers(ctx context.Context, project domain.Project, req domain.PageRequest) (domain.Page[string], error) {
	args := m.Called(ctx, project, req)
	return args.Get(0).(domain.Page[string]), args.Error(1)
}

func (m *MockProjectStore) Migrate(ctx context.Context, region string, from *domain.Project, to domain.Project, resourceARNs []string) error {
	return m.Called(ctx, region, from, to, resourceARNs).Error(0)
}

type MockOwnerLookup struct {
	mock.Mock
}

func (m *MockOwnerLookup) Owner(ctx context.Context, target domain.AlarmTarget, tagKey string) (string, error) {
	args := m.Called(ctx, target, tagKey)
	return args.String(0), args.Error(1)
}

type MockChatNotifier struct {
	mock.Mock
}

func (m *MockChatNotifier) Send(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, mail domain.OwnerMail) error {
	return m.Called(ctx, mail).Error(0)
}

type MockLogSink struct {
	mock.Mock
}

func (m *MockLogSink) Publish(ctx context.Context, host, shortMessage string) error {
	return m.Called(ctx, host, shortMessage).Error(0)
}

type MockTransliterator struct {
	mock.Mock
}

func (m *MockTransliterator) Transliterate(s string) string {
	return m.Called(s).String(0)
}

type MockMetricsPusher struct {
	mock.Mock
}

func (m *MockMetricsPusher) Push(ctx context.Context, report *domain.Report) error {
	return m.Called(ctx, report).Error(0)
}

type MockTask struct {
	mock.Mock
}

func (m *MockTask) Name() string {
	return m.Called().String(0)
}

func (m *MockTask) Run(ctx context.Context) (*domain.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, report *domain.Report) error {
	return m.Called(ctx, report).Error(0)
}
