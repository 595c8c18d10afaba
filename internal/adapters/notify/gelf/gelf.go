package gelf

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const Version = "1.1"

// Non-ASCII text is written as-is, collectors index it verbatim.
var api = jsoniter.Config{EscapeHTML: false}.Froze()

// Message is the minimal GELF payload accepted by the collector's HTTP input.
type Message struct {
	Version      string `json:"version"`
	Host         string `json:"host"`
	ShortMessage string `json:"short_message"`
}

type Config struct {
	Address string        `mapstructure:"address" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Sink posts one GELF message per Publish call.
type Sink struct {
	cfg    Config
	http   *http.Client
	logger ports.Logger
}

func NewSink(cfg Config, logger ports.Logger) *Sink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sink{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithFields(map[string]any{"component": "gelf"}),
	}
}

var _ ports.LogSink = (*Sink)(nil)

func Encode(host, shortMessage string) ([]byte, error) {
	b, err := api.Marshal(Message{Version: Version, Host: host, ShortMessage: shortMessage})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode GELF message")
	}
	return b, nil
}

func (s *Sink) Publish(ctx context.Context, host, shortMessage string) error {
	if s.cfg.Address == "" {
		return errors.NewUserFacing(errors.CodeConfigValidation, "log collector address is not set",
			"Set graylog_address in the invocation user data or forwarders.gelf.address in the config file")
	}
	payload, err := Encode(host, shortMessage)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Address, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "failed to build GELF request")
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "log collector unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return errors.Newf(errors.CodeNotificationFailed, "log collector returned HTTP %d", resp.StatusCode)
	}
	s.logger.Debugf(ctx, "Published %d bytes for %s", len(payload), host)
	return nil
}
