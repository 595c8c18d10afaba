package app

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/email"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/gelf"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/mocks"
)

func TestBuildApplicationFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a, err := BuildApplicationFromViper(context.Background(), viper.New())

		require.NoError(t, err)
		assert.Equal(t, []string{"us-east-1"}, a.Config.AWS.Regions)
		assert.NotNil(t, a.Reporter)
	})

	t.Run("invalid reporter", func(t *testing.T) {
		v := viper.New()
		v.Set("settings.reporter", "xml")

		_, err := BuildApplicationFromViper(context.Background(), v)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeConfigValidation))
		assert.Contains(t, err.Error(), "ReporterType")
	})

	t.Run("overrides from config", func(t *testing.T) {
		v := viper.New()
		v.Set("aws.regions", []string{"eu-west-1", "eu-central-1"})
		v.Set("settings.reporter", "json")

		a, err := BuildApplicationFromViper(context.Background(), v)

		require.NoError(t, err)
		assert.Equal(t, []string{"eu-west-1", "eu-central-1"}, a.Config.AWS.Scope().Regions)
	})
}

type ApplicationTestSuite struct {
	suite.Suite
	v         *viper.Viper
	app       *Application
	groups    *mocks.MockGroupStore
	owners    *mocks.MockOwnerLookup
	mailer    *mocks.MockMailer
	sink      *mocks.MockLogSink
	reporter  *mocks.MockReporter
	metrics   *mocks.MockMetricsPusher
	platErr   error
	platCalls int
	mailCfg   email.Config
	gelfCfg   gelf.Config
}

func (s *ApplicationTestSuite) SetupTest() {
	s.v = viper.New()
	s.v.Set("access_key", "AKID")
	s.v.Set("secret_key", "SECRET")
	s.groups = &mocks.MockGroupStore{}
	s.owners = &mocks.MockOwnerLookup{}
	s.mailer = &mocks.MockMailer{}
	s.sink = &mocks.MockLogSink{}
	s.reporter = &mocks.MockReporter{}
	s.metrics = &mocks.MockMetricsPusher{}
	s.platErr = nil
	s.platCalls = 0

	platforms := func(ctx context.Context, inv ports.Invocation) (*Platform, error) {
		s.platCalls++
		if s.platErr != nil {
			return nil, s.platErr
		}
		return &Platform{
			Inventory: &mocks.MockInventory{},
			Groups:    s.groups,
			Mounts:    &mocks.MockMountPointInventory{},
			Owners:    s.owners,
		}, nil
	}
	a, err := BuildApplicationFromViper(context.Background(), s.v,
		WithPlatforms(platforms),
		WithMailers(func(cfg email.Config, _ ports.Logger) (ports.Mailer, error) {
			s.mailCfg = cfg
			return s.mailer, nil
		}),
		WithLogSinks(func(cfg gelf.Config, _ ports.Logger) ports.LogSink {
			s.gelfCfg = cfg
			return s.sink
		}),
	)
	s.Require().NoError(err)
	a.Logger = mocks.NewPermissiveLogger()
	a.Reporter = s.reporter
	a.Metrics = s.metrics
	s.app = a
}

func TestApplicationTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationTestSuite))
}

func (s *ApplicationTestSuite) userData(kv map[string]any) {
	s.v.Set("user_data", kv)
}

func (s *ApplicationTestSuite) TestRunTask_Groups() {
	s.groups.On("ListGroups", mock.Anything, mock.Anything).Return(domain.Page[domain.MonitorGroup]{}, nil)
	s.reporter.On("Report", mock.Anything, mock.AnythingOfType("*domain.Report")).Return(nil)
	s.metrics.On("Push", mock.Anything, mock.Anything).Return(stderrors.New("gateway down"))

	report, err := s.app.RunTask(context.Background(), service.TaskGroups, s.app.Invocation)

	s.Require().NoError(err)
	s.Equal(service.TaskGroups, report.Task)
	s.Empty(report.Results)
	s.reporter.AssertExpectations(s.T())
	s.metrics.AssertExpectations(s.T())
}

func (s *ApplicationTestSuite) TestRunTask_Unknown() {
	_, err := s.app.RunTask(context.Background(), "cleanup", s.app.Invocation)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeConfigValidation))
	s.Equal(0, s.platCalls)
}

func (s *ApplicationTestSuite) TestRunTask_InvalidSnapshotParams() {
	s.userData(map[string]any{"max_savetime": "0"})

	_, err := s.app.RunTask(context.Background(), service.TaskSnapshots, s.app.Invocation)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeInvalidParameter))
	s.Equal(0, s.platCalls)
	s.reporter.AssertNotCalled(s.T(), "Report", mock.Anything, mock.Anything)
}

func (s *ApplicationTestSuite) TestRunTask_PlatformError() {
	s.platErr = errors.New(errors.CodePlatformAuthError, "bad keys")

	_, err := s.app.RunTask(context.Background(), service.TaskTags, s.app.Invocation)

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodePlatformAuthError))
}

func cpuAlarm() domain.Alarm {
	return domain.Alarm{
		AlarmName:      "high-cpu",
		NewStateValue:  "ALARM",
		NewStateReason: "Threshold Crossed",
		AlarmArn:       "arn:aws:cloudwatch:eu-west-1:123456789012:alarm:high-cpu",
		Trigger: domain.AlarmTrigger{
			MetricName: "CPUUtilization",
			Namespace:  "AWS/EC2",
			Dimensions: []domain.AlarmDimension{{Name: "InstanceId", Value: "i-0abc"}},
		},
	}
}

func (s *ApplicationTestSuite) TestHandleAlarm() {
	s.userData(map[string]any{
		"username": "bot@corp.example",
		"password": "pw",
		"host":     "smtp.corp.example",
		"cc":       "ops@corp.example",
	})
	s.owners.On("Owner", mock.Anything, mock.MatchedBy(func(t domain.AlarmTarget) bool {
		return t.ResourceID == "i-0abc" && t.Region == "eu-west-1"
	}), "owner").Return("张三", nil)
	s.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m domain.OwnerMail) bool {
		return m.Recipient == "zhangsan@example.com" && len(m.CC) == 1
	})).Return(nil)

	outcome, err := s.app.HandleAlarm(context.Background(), s.app.Invocation, cpuAlarm())

	s.Require().NoError(err)
	s.True(outcome.Delivered)
	s.Equal("zhangsan@example.com", outcome.Recipient)
	s.Equal(465, s.mailCfg.Port)
	s.Equal("smtp.corp.example", s.mailCfg.Host)
}

func (s *ApplicationTestSuite) TestHandleAlarm_MissingSMTP() {
	_, err := s.app.HandleAlarm(context.Background(), s.app.Invocation, cpuAlarm())

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeInvalidParameter))
	s.mailer.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *ApplicationTestSuite) TestForward() {
	s.userData(map[string]any{"graylog_address": "http://graylog.corp.example:12201/gelf"})
	s.sink.On("Publish", mock.Anything, "harbor-webhook", `{"type":"PING"}`).Return(nil)

	resp, err := s.app.Forward(context.Background(), "harbor", s.app.Invocation, service.WebhookRequest{Body: `{"type":"PING"}`})

	s.Require().NoError(err)
	s.Equal(200, resp.StatusCode)
	s.Equal("http://graylog.corp.example:12201/gelf", s.gelfCfg.Address)
	s.sink.AssertExpectations(s.T())
}

func (s *ApplicationTestSuite) TestForward_UnknownSource() {
	_, err := s.app.Forward(context.Background(), "gitlab", s.app.Invocation, service.WebhookRequest{Body: `{}`})

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeConfigValidation))
}

func TestRequestID(t *testing.T) {
	a := RequestID(context.Background())
	b := RequestID(context.Background())

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
