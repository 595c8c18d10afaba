package service

import (
	"context"
	"strings"
	"time"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// NamespaceBinding resolves an alarm namespace to the alarmed resource.
type NamespaceBinding struct {
	Service      string `mapstructure:"service" validate:"required"`
	ResourceType string `mapstructure:"resource_type" validate:"required"`
	Dimension    string `mapstructure:"dimension" validate:"required"`
}

type AlarmConfig struct {
	OwnerTagKey       string                      `mapstructure:"owner_tag_key" validate:"required"`
	MailDomain        string                      `mapstructure:"mail_domain" validate:"required,fqdn"`
	IgnoredNamespaces []string                    `mapstructure:"ignored_namespaces"`
	IgnoredKeywords   []string                    `mapstructure:"ignored_keywords"`
	Namespaces        map[string]NamespaceBinding `mapstructure:"namespaces" validate:"dive"`
	DefaultRegion     string                      `mapstructure:"default_region"`
	TimeLayout        string                      `mapstructure:"time_layout" validate:"required"`
	Location          string                      `mapstructure:"location"`
}

func DefaultAlarmConfig() AlarmConfig {
	return AlarmConfig{
		OwnerTagKey:       "owner",
		MailDomain:        "example.com",
		IgnoredNamespaces: []string{"AWS/VPN"},
		Namespaces: map[string]NamespaceBinding{
			"AWS/EC2":        {Service: "ec2", ResourceType: "instance", Dimension: "InstanceId"},
			"CWAgent":        {Service: "ec2", ResourceType: "instance", Dimension: "InstanceId"},
			"AWS/EBS":        {Service: "ec2", ResourceType: "volume", Dimension: "VolumeId"},
			"AWS/RDS":        {Service: "rds", ResourceType: "db", Dimension: "DBInstanceIdentifier"},
			"AWS/NATGateway": {Service: "ec2", ResourceType: "natgateway", Dimension: "NatGatewayId"},
		},
		TimeLayout: "2006-01-02 15:04:05",
		Location:   "Local",
	}
}

// AlarmOutcome says what happened to one alarm. Delivered is false for both
// drops and failures; Err is only set for failures.
type AlarmOutcome struct {
	Delivered bool   `json:"delivered"`
	Recipient string `json:"recipient,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Err       error  `json:"-"`
}

// AlarmNotifier mails the owner of an alarmed resource.
type AlarmNotifier struct {
	cfg      AlarmConfig
	owners   ports.OwnerLookup
	mailer   ports.Mailer
	names    ports.Transliterator
	cc       []string
	location *time.Location
	logger   ports.Logger
}

func NewAlarmNotifier(cfg AlarmConfig, owners ports.OwnerLookup, mailer ports.Mailer, names ports.Transliterator, cc []string, logger ports.Logger) (*AlarmNotifier, error) {
	if owners == nil || mailer == nil || names == nil {
		return nil, errors.New(errors.CodeInternal, "alarm notifier requires owner lookup, mailer and transliterator")
	}
	loc := time.Local
	if cfg.Location != "" && cfg.Location != "Local" {
		l, err := time.LoadLocation(cfg.Location)
		if err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation, "invalid alarm time location "+cfg.Location, "Use an IANA zone name such as Asia/Shanghai.")
		}
		loc = l
	}
	return &AlarmNotifier{
		cfg:      cfg,
		owners:   owners,
		mailer:   mailer,
		names:    names,
		cc:       cc,
		location: loc,
		logger:   logger.WithFields(map[string]any{"task": "alarm"}),
	}, nil
}

// Target resolves the alarmed resource. ok is false for alarms that are
// filtered out or cannot be attributed to a resource.
func (a *AlarmNotifier) Target(alarm domain.Alarm) (domain.AlarmTarget, string, bool) {
	ns := alarm.Trigger.Namespace
	for _, ignored := range a.cfg.IgnoredNamespaces {
		if ns == ignored {
			return domain.AlarmTarget{}, "ignored namespace " + ns, false
		}
	}
	text := alarm.AlarmName + " " + alarm.AlarmDescription + " " + alarm.NewStateReason
	for _, kw := range a.cfg.IgnoredKeywords {
		if kw != "" && strings.Contains(text, kw) {
			return domain.AlarmTarget{}, "ignored keyword " + kw, false
		}
	}

	binding, ok := a.cfg.Namespaces[ns]
	if !ok {
		return domain.AlarmTarget{}, "unsupported namespace " + ns, false
	}
	id := alarm.Dimension(binding.Dimension)
	if i := strings.Index(id, "<br>"); i >= 0 {
		id = id[:i]
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AlarmTarget{}, "alarm has no " + binding.Dimension + " dimension", false
	}

	return domain.AlarmTarget{
		Service:      binding.Service,
		ResourceType: binding.ResourceType,
		ResourceID:   id,
		Region:       a.region(alarm),
		AccountID:    alarm.AccountID,
	}, "", true
}

// region prefers the code embedded in the alarm ARN; the Region field of the
// message holds a display name.
func (a *AlarmNotifier) region(alarm domain.Alarm) string {
	if parts := strings.Split(alarm.AlarmArn, ":"); len(parts) > 3 && parts[3] != "" {
		return parts[3]
	}
	return a.cfg.DefaultRegion
}

func (a *AlarmNotifier) Notify(ctx context.Context, alarm domain.Alarm) AlarmOutcome {
	logger := a.logger.WithFields(map[string]any{"alarm": alarm.AlarmName})

	target, reason, ok := a.Target(alarm)
	if !ok {
		logger.Infof(ctx, "Dropping alarm: %s", reason)
		return AlarmOutcome{Reason: reason}
	}

	owner, err := a.owners.Owner(ctx, target, a.cfg.OwnerTagKey)
	if err != nil {
		logger.Errorf(ctx, err, "Owner lookup failed for %s %s", target.ResourceType, target.ResourceID)
		return AlarmOutcome{Reason: "owner lookup failed", Err: err}
	}
	if owner == "" {
		logger.Infof(ctx, "No %s tag on %s %s, dropping alarm", a.cfg.OwnerTagKey, target.ResourceType, target.ResourceID)
		return AlarmOutcome{Reason: "no owner tag"}
	}

	mail := a.compose(alarm, target, owner)
	if err := a.mailer.Send(ctx, mail); err != nil {
		logger.Errorf(ctx, err, "Failed to mail %s", mail.Recipient)
		return AlarmOutcome{Recipient: mail.Recipient, Reason: "mail delivery failed", Err: err}
	}
	logger.Infof(ctx, "Alarm mailed to %s", mail.Recipient)
	return AlarmOutcome{Delivered: true, Recipient: mail.Recipient}
}

func (a *AlarmNotifier) compose(alarm domain.Alarm, target domain.AlarmTarget, owner string) domain.OwnerMail {
	subject := alarm.Subject
	if subject == "" {
		subject = alarm.AlarmName
	}
	occurred, err := time.Parse("2006-01-02T15:04:05.000-0700", alarm.StateChangeTime)
	if err != nil {
		occurred, _ = time.Parse(time.RFC3339, alarm.StateChangeTime)
	}
	occurredText := alarm.StateChangeTime
	if !occurred.IsZero() {
		occurredText = occurred.In(a.location).Format(a.cfg.TimeLayout)
	}

	dimension := ""
	if b, ok := a.cfg.Namespaces[alarm.Trigger.Namespace]; ok {
		dimension = b.Dimension
	}
	return domain.OwnerMail{
		Manager:        owner,
		Recipient:      strings.ToLower(a.names.Transliterate(owner)) + "@" + a.cfg.MailDomain,
		CC:             a.cc,
		Subject:        subject,
		Rule:           alarm.AlarmName,
		Reason:         alarm.NewStateReason,
		Region:         target.Region,
		DimensionName:  dimension,
		ResourceID:     target.ResourceID,
		MetricName:     alarm.Trigger.MetricName,
		Namespace:      alarm.Trigger.Namespace,
		Threshold:      alarm.Trigger.Threshold,
		Comparison:     alarm.Trigger.ComparisonOperator,
		State:          alarm.NewStateValue,
		OccurredAt:     occurred,
		OccurredAtText: occurredText,
	}
}
