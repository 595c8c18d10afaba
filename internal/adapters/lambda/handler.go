// Package lambda adapts the application to the function runtime: scheduled
// events run a task, SNS records carry alarms and API gateway requests carry
// webhooks.
package lambda

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	reportjson "github.com/olusolaa/cloud-housekeeper/internal/reporting/json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Application is the part of the application the handlers drive.
type Application interface {
	RunTask(ctx context.Context, name string, inv ports.Invocation) (*domain.Report, error)
	HandleAlarm(ctx context.Context, inv ports.Invocation, alarm domain.Alarm) (service.AlarmOutcome, error)
	Forward(ctx context.Context, source string, inv ports.Invocation, req service.WebhookRequest) (domain.Response, error)
}

type Handlers struct {
	app    Application
	inv    ports.Invocation
	logger ports.Logger
}

func NewHandlers(app Application, inv ports.Invocation, logger ports.Logger) (*Handlers, error) {
	if app == nil || inv == nil {
		return nil, errors.New(errors.CodeInternal, "lambda handlers require an application and an invocation")
	}
	return &Handlers{app: app, inv: inv, logger: logger.WithFields(map[string]any{"component": "lambda"})}, nil
}

// Scheduled runs one task per event and answers with the JSON report.
func (h *Handlers) Scheduled(task string) func(context.Context, events.CloudWatchEvent) (domain.Response, error) {
	return func(ctx context.Context, event events.CloudWatchEvent) (domain.Response, error) {
		h.logger.Debugf(ctx, "Scheduled event %s from %s", event.ID, event.Source)
		report, err := h.app.RunTask(ctx, task, h.inv)
		if err != nil {
			return domain.Response{}, err
		}
		body, err := reportjson.Marshal(report)
		if err != nil {
			return domain.Response{}, err
		}
		return jsonResponse(http.StatusOK, body), nil
	}
}

// Alarm mails the owner of every alarm in the batch. Dropped alarms are part
// of the response; only setup failures and undecodable messages fail it.
func (h *Handlers) Alarm(ctx context.Context, event events.SNSEvent) (domain.Response, error) {
	outcomes := make([]service.AlarmOutcome, 0, len(event.Records))
	for _, record := range event.Records {
		alarm, err := DecodeAlarm(record.SNS)
		if err != nil {
			h.logger.Errorf(ctx, err, "Undecodable alarm message %s", record.SNS.MessageID)
			return domain.Response{}, err
		}
		outcome, err := h.app.HandleAlarm(ctx, h.inv, alarm)
		if err != nil {
			return domain.Response{}, err
		}
		outcomes = append(outcomes, outcome)
	}
	body, err := json.Marshal(map[string]any{"alarms": outcomes})
	if err != nil {
		return domain.Response{}, errors.Wrap(err, errors.CodeInternal, "failed to encode alarm outcomes")
	}
	return jsonResponse(http.StatusOK, body), nil
}

// DecodeAlarm reads the alarm JSON carried in an SNS message.
func DecodeAlarm(msg events.SNSEntity) (domain.Alarm, error) {
	var alarm domain.Alarm
	if err := json.UnmarshalFromString(msg.Message, &alarm); err != nil {
		return domain.Alarm{}, errors.Wrap(err, errors.CodePayloadDecode, "SNS message is not an alarm")
	}
	alarm.Subject = msg.Subject
	return alarm, nil
}

// Webhook relays API gateway requests of one source to the log collector.
func (h *Handlers) Webhook(source string) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := h.app.Forward(ctx, source, h.inv, service.WebhookRequest{Body: req.Body, IsBase64Encoded: req.IsBase64Encoded})
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return events.APIGatewayProxyResponse{
			StatusCode:      resp.StatusCode,
			Headers:         resp.Headers,
			Body:            resp.Body,
			IsBase64Encoded: resp.IsBase64Encoded,
		}, nil
	}
}

// Select returns the runtime handler for a configured handler name.
func (h *Handlers) Select(name string) (any, error) {
	switch name {
	case service.TaskGroups, service.TaskSnapshots, service.TaskTags, service.TaskNames:
		return h.Scheduled(name), nil
	case "alarm":
		return h.Alarm, nil
	case "yuque", "harbor":
		return h.Webhook(name), nil
	case "":
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no lambda handler configured",
			"Set settings.handler or HOUSEKEEPER_SETTINGS_HANDLER")
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unknown lambda handler '%s'", name),
			"Use one of: groups, snapshots, tags, names, alarm, yuque, harbor")
	}
}

// Start hands the selected handler to the runtime. It does not return.
func (h *Handlers) Start(name string) error {
	handler, err := h.Select(name)
	if err != nil {
		return err
	}
	h.logger.Infof(context.Background(), "Serving %s handler", name)
	awslambda.Start(handler)
	return nil
}

func jsonResponse(status int, body []byte) domain.Response {
	return domain.Response{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
