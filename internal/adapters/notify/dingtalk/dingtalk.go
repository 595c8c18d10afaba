package dingtalk

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const DefaultEndpoint = "https://oapi.dingtalk.com/robot/send"

var api = jsoniter.Config{EscapeHTML: false}.Froze()

type Config struct {
	Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
	Token    string        `mapstructure:"token" validate:"required"`
	Secret   string        `mapstructure:"secret" validate:"required"`
	Title    string        `mapstructure:"title"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Client posts text messages to a signed DingTalk robot.
type Client struct {
	cfg    Config
	http   *http.Client
	now    func() time.Time
	logger ports.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg Config, logger ports.Logger, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		now:    time.Now,
		logger: logger.WithFields(map[string]any{"component": "dingtalk"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.ChatNotifier = (*Client)(nil)

// Sign computes the robot signature for a millisecond timestamp. The result
// is already query-escaped.
func Sign(secret string, timestampMS int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s", timestampMS, secret)
	return url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

type message struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
	At struct {
		AtMobiles []string `json:"atMobiles"`
		IsAtAll   bool     `json:"isAtAll"`
	} `json:"at"`
}

type reply struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (c *Client) Send(ctx context.Context, text string) error {
	msg := message{MsgType: "text"}
	msg.Text.Content = text
	if c.cfg.Title != "" {
		msg.Text.Content = c.cfg.Title + "\n\n" + text
	}
	msg.At.AtMobiles = []string{}

	payload, err := api.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode chat message")
	}

	ts := c.now().UnixMilli()
	target := c.cfg.Endpoint + "?access_token=" + url.QueryEscape(c.cfg.Token) +
		"&timestamp=" + strconv.FormatInt(ts, 10) + "&sign=" + Sign(c.cfg.Secret, ts)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "failed to build chat request")
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "chat webhook unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "failed to read chat webhook response")
	}
	if resp.StatusCode/100 != 2 {
		return errors.Newf(errors.CodeNotificationFailed, "chat webhook returned HTTP %d", resp.StatusCode)
	}
	var r reply
	if err := api.Unmarshal(body, &r); err != nil {
		return errors.Wrap(err, errors.CodeNotificationFailed, "unexpected chat webhook response")
	}
	if r.ErrCode != 0 {
		return errors.Newf(errors.CodeNotificationFailed, "chat webhook rejected message: %d %s", r.ErrCode, r.ErrMsg)
	}
	c.logger.Debugf(ctx, "Chat message delivered (%d bytes)", len(payload))
	return nil
}
