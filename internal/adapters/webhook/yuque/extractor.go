// Package yuque reduces Yuque audit webhooks to the fields worth indexing.
package yuque

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const (
	Source = "yuque"
	Host   = "yuque-webhook"
)

var api = jsoniter.Config{EscapeHTML: false}.Froze()

// Event is the indexed shape. Missing source fields stay null.
type Event struct {
	Username      any `json:"username"`
	Action        any `json:"action"`
	FileType      any `json:"file_type"`
	Title         any `json:"title"`
	ExportFormat  any `json:"export_format"`
	Description   any `json:"description"`
	AuditableType any `json:"auditable_type"`
	CreatedAt     any `json:"created_at"`
	IP            any `json:"ip"`
}

type Extractor struct{}

var _ service.PayloadExtractor = Extractor{}

func (Extractor) Source() string { return Source }
func (Extractor) Host() string   { return Host }

// ShortMessage extracts the audit fields under data. Payloads without a
// non-empty data object are forwarded whole.
func (Extractor) ShortMessage(payload []byte) (string, error) {
	data := api.Get(payload, "data")
	if data.LastError() != nil || data.ValueType() != jsoniter.ObjectValue || data.Size() == 0 {
		return string(bytes.TrimSpace(payload)), nil
	}

	event := Event{
		Username:      data.Get("actor", "name").GetInterface(),
		Action:        data.Get("action").GetInterface(),
		FileType:      data.Get("auditable", "type").GetInterface(),
		Title:         data.Get("auditable", "title").GetInterface(),
		ExportFormat:  data.Get("auditable", "format").GetInterface(),
		Description:   data.Get("group", "description").GetInterface(),
		AuditableType: data.Get("auditable_type").GetInterface(),
		CreatedAt:     data.Get("created_at").GetInterface(),
		IP:            data.Get("ip").GetInterface(),
	}
	out, err := api.MarshalToString(event)
	if err != nil {
		return "", errors.Wrap(err, errors.CodePayloadDecode, "failed to encode yuque event")
	}
	return out, nil
}
