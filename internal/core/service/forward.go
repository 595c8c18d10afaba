package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// PayloadExtractor turns one webhook source's payload into a log line.
type PayloadExtractor interface {
	Source() string
	Host() string
	ShortMessage(payload []byte) (string, error)
}

// WebhookRequest is the part of an HTTP event a forwarder reads.
type WebhookRequest struct {
	Body            string
	IsBase64Encoded bool
}

// Forwarder relays webhook payloads to a log sink. Delivery is attempted
// once and its failure does not change the response.
type Forwarder struct {
	extractor PayloadExtractor
	sink      ports.LogSink
	logger    ports.Logger
}

func NewForwarder(extractor PayloadExtractor, sink ports.LogSink, logger ports.Logger) (*Forwarder, error) {
	if extractor == nil || sink == nil {
		return nil, errors.New(errors.CodeInternal, "forwarder requires an extractor and a sink")
	}
	return &Forwarder{
		extractor: extractor,
		sink:      sink,
		logger:    logger.WithFields(map[string]any{"task": "forward", "source": extractor.Source()}),
	}, nil
}

func (f *Forwarder) Forward(ctx context.Context, req WebhookRequest) domain.Response {
	payload, err := DecodeBody(req)
	if err != nil {
		f.logger.Errorf(ctx, err, "Rejecting undecodable webhook body")
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	msg, err := f.extractor.ShortMessage(payload)
	if err != nil {
		f.logger.Errorf(ctx, err, "Rejecting malformed %s payload", f.extractor.Source())
		return jsonResponse(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	f.logger.Debugf(ctx, "Forwarding %s event: %s", f.extractor.Source(), msg)

	if err := f.sink.Publish(ctx, f.extractor.Host(), msg); err != nil {
		f.logger.Errorf(ctx, err, "Failed to forward %s event", f.extractor.Source())
	}
	return domain.Response{
		StatusCode: http.StatusOK,
		Body:       string(payload),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// DecodeBody returns the JSON payload of a webhook request. Bodies not
// flagged as base64 are still decoded when they are not JSON themselves.
func DecodeBody(req WebhookRequest) ([]byte, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, errors.New(errors.CodePayloadDecode, "empty webhook body")
	}
	if !req.IsBase64Encoded && jsoniter.Valid([]byte(body)) {
		return []byte(body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePayloadDecode, "webhook body is neither JSON nor base64")
	}
	if !jsoniter.Valid(decoded) {
		return nil, errors.New(errors.CodePayloadDecode, "decoded webhook body is not JSON")
	}
	return decoded, nil
}

func jsonResponse(status int, v any) domain.Response {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		body = []byte(`{}`)
	}
	return domain.Response{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
