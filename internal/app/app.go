package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/dingtalk"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/email"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/notify/gelf"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/webhook/harbor"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/webhook/yuque"
	"github.com/olusolaa/cloud-housekeeper/internal/config"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/invocation"
)

// Application holds what every handler shares. Cloud clients, mailers and
// sinks are built per invocation from its credentials and user data.
type Application struct {
	Config     *config.Config
	Logger     ports.Logger
	Reporter   ports.Reporter
	Metrics    ports.MetricsPusher
	Invocation ports.Invocation

	platforms PlatformFactory
	validate  *validator.Validate
	mailers   func(email.Config, ports.Logger) (ports.Mailer, error)
	chats     func(dingtalk.Config, ports.Logger) ports.ChatNotifier
	sinks     func(gelf.Config, ports.Logger) ports.LogSink
	names     ports.Transliterator
}

type Option func(*Application)

func WithPlatforms(f PlatformFactory) Option {
	return func(a *Application) { a.platforms = f }
}

func WithMailers(f func(email.Config, ports.Logger) (ports.Mailer, error)) Option {
	return func(a *Application) { a.mailers = f }
}

func WithChats(f func(dingtalk.Config, ports.Logger) ports.ChatNotifier) Option {
	return func(a *Application) { a.chats = f }
}

func WithLogSinks(f func(gelf.Config, ports.Logger) ports.LogSink) Option {
	return func(a *Application) { a.sinks = f }
}

func (a *Application) mailer(cfg email.Config, logger ports.Logger) (ports.Mailer, error) {
	if a.mailers != nil {
		return a.mailers(cfg, logger)
	}
	return email.NewMailer(cfg, logger)
}

func (a *Application) chat(cfg dingtalk.Config, logger ports.Logger) ports.ChatNotifier {
	if a.chats != nil {
		return a.chats(cfg, logger)
	}
	return dingtalk.NewClient(cfg, logger)
}

func (a *Application) sink(cfg gelf.Config, logger ports.Logger) ports.LogSink {
	if a.sinks != nil {
		return a.sinks(cfg, logger)
	}
	return gelf.NewSink(cfg, logger)
}

func WithTransliterator(t ports.Transliterator) Option {
	return func(a *Application) { a.names = t }
}

// RequestID is the Lambda request id when running in Lambda, a fresh UUID otherwise.
func RequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

// Tasks registers every scheduled task for the invocation. Tasks are built
// on first run so a bad parameter of one task does not block the others.
func (a *Application) Tasks(inv ports.Invocation, logger ports.Logger) (*service.TaskRegistry, error) {
	var (
		once     sync.Once
		platform *Platform
		platErr  error
	)
	getPlatform := func(ctx context.Context) (*Platform, error) {
		once.Do(func() { platform, platErr = a.platforms(ctx, inv) })
		return platform, platErr
	}

	cfg := a.Config
	scope := cfg.AWS.Scope()
	registry := service.NewTaskRegistry()
	tasks := []ports.Task{
		lazyTask{name: service.TaskGroups, build: func(ctx context.Context) (ports.Task, error) {
			p, err := getPlatform(ctx)
			if err != nil {
				return nil, err
			}
			return service.NewGroupSynchronizer(cfg.Groups, scope, p.Groups, p.Inventory, p.Mounts, logger)
		}},
		lazyTask{name: service.TaskSnapshots, build: func(ctx context.Context) (ports.Task, error) {
			params := invocation.SnapshotParams{MaxSaveTime: cfg.Snapshots.DefaultRetention}
			if err := invocation.Decode(inv, &params); err != nil {
				return nil, err
			}
			p, err := getPlatform(ctx)
			if err != nil {
				return nil, err
			}
			var opts []service.RotatorOption
			if params.DDToken != "" {
				chatCfg := cfg.Snapshots.Chat
				chatCfg.Token, chatCfg.Secret = params.DDToken, params.DDSecret
				if chatCfg.Timeout == 0 {
					chatCfg.Timeout = cfg.Settings.HTTPTimeout
				}
				opts = append(opts, service.WithChatNotifier(a.chat(chatCfg, logger)))
			} else {
				logger.Debugf(ctx, "No dd_token in user data, snapshot summary goes to the log only")
			}
			return service.NewSnapshotRotator(cfg.Snapshots.SnapshotConfig, scope, params.MaxSaveTime, p.Inventory, p.Snapshots, logger, opts...)
		}},
		lazyTask{name: service.TaskTags, build: func(ctx context.Context) (ports.Task, error) {
			p, err := getPlatform(ctx)
			if err != nil {
				return nil, err
			}
			return service.NewTagReconciler(cfg.Tags, scope, p.Inventory, p.Tagger, p.Projects, logger)
		}},
		lazyTask{name: service.TaskNames, build: func(ctx context.Context) (ports.Task, error) {
			p, err := getPlatform(ctx)
			if err != nil {
				return nil, err
			}
			return service.NewNameNormalizer(cfg.Naming, scope, p.Inventory, p.Renamer, logger)
		}},
	}
	for _, t := range tasks {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// RunTask runs one scheduled task, renders its report and pushes its metrics.
// Mutation failures are in the report; only setup failures are returned.
func (a *Application) RunTask(ctx context.Context, name string, inv ports.Invocation) (*domain.Report, error) {
	logger := a.Logger.WithFields(map[string]any{"request_id": RequestID(ctx)})
	registry, err := a.Tasks(inv, logger)
	if err != nil {
		return nil, err
	}
	task, err := registry.Get(name)
	if err != nil {
		return nil, err
	}

	logger.Infof(ctx, "Starting %s", name)
	report, err := task.Run(ctx)
	if err != nil {
		logger.Errorf(ctx, err, "Task %s failed", name)
		return nil, err
	}

	if err := a.Reporter.Report(ctx, report); err != nil {
		logger.Errorf(ctx, err, "Failed to render report of %s", name)
	}
	if a.Metrics != nil {
		if err := a.Metrics.Push(ctx, report); err != nil {
			logger.Warnf(ctx, "Metrics of %s not pushed: %v", name, err)
		}
	}
	logger.Infof(ctx, "Finished %s: %d results, %d failed", name, len(report.Results), len(report.Failures()))
	return report, nil
}

// HandleAlarm mails the owner of the alarmed resource.
func (a *Application) HandleAlarm(ctx context.Context, inv ports.Invocation, alarm domain.Alarm) (service.AlarmOutcome, error) {
	logger := a.Logger.WithFields(map[string]any{"request_id": RequestID(ctx)})

	smtp := a.Config.Alarm.SMTP
	params := invocation.MailParams{Port: smtp.Port}
	if err := invocation.Decode(inv, &params); err != nil {
		return service.AlarmOutcome{}, err
	}
	smtp.Host, smtp.Port, smtp.Username, smtp.Password = params.Host, params.Port, params.Username, params.Password
	if err := a.validate.StructCtx(ctx, smtp); err != nil {
		return service.AlarmOutcome{}, invocation.FormatValidation(err, errors.CodeInvalidParameter, "Invalid SMTP settings:", "Check username, password, host and port in the user data.")
	}

	mailer, err := a.mailer(smtp, logger)
	if err != nil {
		return service.AlarmOutcome{}, err
	}
	platform, err := a.platforms(ctx, inv)
	if err != nil {
		return service.AlarmOutcome{}, err
	}
	notifier, err := service.NewAlarmNotifier(a.Config.Alarm.AlarmConfig, platform.Owners, mailer, a.names, params.CC, logger)
	if err != nil {
		return service.AlarmOutcome{}, err
	}
	return notifier.Notify(ctx, alarm), nil
}

// Extractor returns the payload extractor of a webhook source.
func Extractor(source string) (service.PayloadExtractor, error) {
	switch source {
	case yuque.Source:
		return yuque.Extractor{}, nil
	case harbor.Source:
		return harbor.Extractor{}, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unknown webhook source '%s'", source), "Use one of: yuque, harbor")
	}
}

// Forward relays one webhook body to the log collector.
func (a *Application) Forward(ctx context.Context, source string, inv ports.Invocation, req service.WebhookRequest) (domain.Response, error) {
	logger := a.Logger.WithFields(map[string]any{"request_id": RequestID(ctx), "source": source})

	extractor, err := Extractor(source)
	if err != nil {
		return domain.Response{}, err
	}
	gelfCfg := a.Config.Forwarders.GELF
	params := invocation.ForwardParams{GraylogAddress: gelfCfg.Address}
	if err := invocation.Decode(inv, &params); err != nil {
		return domain.Response{}, err
	}
	gelfCfg.Address = params.GraylogAddress
	if gelfCfg.Timeout == 0 {
		gelfCfg.Timeout = a.Config.Settings.HTTPTimeout
	}

	forwarder, err := service.NewForwarder(extractor, a.sink(gelfCfg, logger), logger)
	if err != nil {
		return domain.Response{}, err
	}
	return forwarder.Forward(ctx, req), nil
}

type lazyTask struct {
	name  string
	build func(ctx context.Context) (ports.Task, error)
}

func (l lazyTask) Name() string { return l.name }

func (l lazyTask) Run(ctx context.Context) (*domain.Report, error) {
	task, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	return task.Run(ctx)
}
