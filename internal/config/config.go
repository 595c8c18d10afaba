package config

import (
	"time"

	awsprovider "github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/metrics"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/dingtalk"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/email"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/gelf"
	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
	"github.com/olusolaa/cloud-housekeeper/internal/reporting/json"
	"github.com/olusolaa/cloud-housekeeper/internal/reporting/text"
)

type Config struct {
	Settings   SettingsConfig          `mapstructure:"settings"`
	AWS        AWSConfig               `mapstructure:"aws"`
	Groups     service.GroupSyncConfig `mapstructure:"groups"`
	Snapshots  SnapshotsConfig         `mapstructure:"snapshots"`
	Tags       service.TagSyncConfig   `mapstructure:"tags"`
	Naming     service.NamingConfig    `mapstructure:"naming"`
	Alarm      AlarmConfig             `mapstructure:"alarm"`
	Forwarders ForwardersConfig        `mapstructure:"forwarders"`
	Metrics    metrics.Config          `mapstructure:"metrics"`
}

type SettingsConfig struct {
	Log log.Config `mapstructure:"log"`
	// Handler selects what the lambda subcommand serves.
	Handler      string          `mapstructure:"handler" validate:"omitempty,oneof=groups snapshots tags names alarm yuque harbor"`
	ReporterType string          `mapstructure:"reporter" validate:"oneof=text json"`
	Reporter     ReporterConfigs `mapstructure:"reporter_config"`
	HTTPTimeout  time.Duration   `mapstructure:"http_timeout" validate:"gte=0"`
}

type ReporterConfigs struct {
	Text text.Config `mapstructure:"text"`
	JSON json.Config `mapstructure:"json"`
}

type AWSConfig struct {
	awsprovider.Options `mapstructure:",squash"`
	Regions             []string            `mapstructure:"regions" validate:"required,min=1,dive,required"`
	PageSize            int32               `mapstructure:"page_size" validate:"gte=1,lte=1000"`
	Retry               service.RetryPolicy `mapstructure:"retry"`
}

// Scope is the listing scope shared by the scheduled tasks.
func (c AWSConfig) Scope() service.Scope {
	return service.Scope{Regions: c.Regions, PageLimit: c.PageSize, Retry: c.Retry}
}

type SnapshotsConfig struct {
	service.SnapshotConfig `mapstructure:",squash"`
	// DefaultRetention applies when max_savetime is not passed.
	DefaultRetention int `mapstructure:"default_retention" validate:"gte=1"`
	// Chat is completed with dd_token and dd_secret from the user data.
	Chat dingtalk.Config `mapstructure:"chat" validate:"-"`
}

type AlarmConfig struct {
	service.AlarmConfig `mapstructure:",squash"`
	// SMTP is completed with username, password, host and port from the user data.
	SMTP email.Config `mapstructure:"smtp" validate:"-"`
}

type ForwardersConfig struct {
	// GELF.Address is overridden by graylog_address from the user data.
	GELF gelf.Config `mapstructure:"gelf" validate:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			Log:          log.DefaultConfig(),
			ReporterType: text.ReporterTypeText,
			Reporter: ReporterConfigs{
				Text: text.Config{NoColor: false},
				JSON: json.Config{Indent: true},
			},
			HTTPTimeout: 10 * time.Second,
		},
		AWS: AWSConfig{
			Options:  awsprovider.DefaultOptions(),
			Regions:  []string{"us-east-1"},
			PageSize: 200,
			Retry:    service.DefaultRetryPolicy(),
		},
		Groups: service.DefaultGroupSyncConfig(),
		Snapshots: SnapshotsConfig{
			SnapshotConfig:   service.DefaultSnapshotConfig(),
			DefaultRetention: 7,
			Chat: dingtalk.Config{
				Endpoint: dingtalk.DefaultEndpoint,
				Title:    "Snapshot rotation",
			},
		},
		Tags:   service.DefaultTagSyncConfig(),
		Naming: service.DefaultNamingConfig(),
		Alarm: AlarmConfig{
			AlarmConfig: service.DefaultAlarmConfig(),
			SMTP:        email.Config{Port: 465, SSL: true},
		},
		Forwarders: ForwardersConfig{
			GELF: gelf.Config{},
		},
		Metrics: metrics.Config{Job: "housekeeper"},
	}
}
