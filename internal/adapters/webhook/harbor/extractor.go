// Package harbor reduces Harbor registry webhooks to repository and artifact fields.
package harbor

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const (
	Source = "harbor"
	Host   = "harbor-webhook"
)

var api = jsoniter.Config{EscapeHTML: false}.Froze()

type payload struct {
	Type      any `json:"type"`
	OccurAt   any `json:"occur_at"`
	Operator  any `json:"operator"`
	EventData *struct {
		Resources []struct {
			Digest      string `json:"digest"`
			Tag         string `json:"tag"`
			ResourceURL string `json:"resource_url"`
		} `json:"resources"`
		Repository struct {
			Name         any `json:"name"`
			Namespace    any `json:"namespace"`
			RepoFullName any `json:"repo_full_name"`
			RepoType     any `json:"repo_type"`
		} `json:"repository"`
	} `json:"event_data"`
}

// Event is the indexed shape.
type Event struct {
	Type         any      `json:"type"`
	Operator     any      `json:"operator"`
	OccurAt      any      `json:"occur_at"`
	Repository   any      `json:"repository"`
	Namespace    any      `json:"namespace"`
	RepoType     any      `json:"repo_type"`
	Tags         []string `json:"tags"`
	Digests      []string `json:"digests"`
	ResourceURLs []string `json:"resource_urls"`
}

type Extractor struct{}

var _ service.PayloadExtractor = Extractor{}

func (Extractor) Source() string { return Source }
func (Extractor) Host() string   { return Host }

// ShortMessage flattens event_data. Payloads without it are forwarded whole.
func (Extractor) ShortMessage(raw []byte) (string, error) {
	var p payload
	if err := api.Unmarshal(raw, &p); err != nil {
		return "", errors.Wrap(err, errors.CodePayloadDecode, "harbor payload is not an event object")
	}
	if p.EventData == nil {
		return string(bytes.TrimSpace(raw)), nil
	}

	event := Event{
		Type:         p.Type,
		Operator:     p.Operator,
		OccurAt:      p.OccurAt,
		Repository:   p.EventData.Repository.RepoFullName,
		Namespace:    p.EventData.Repository.Namespace,
		RepoType:     p.EventData.Repository.RepoType,
		Tags:         []string{},
		Digests:      []string{},
		ResourceURLs: []string{},
	}
	for _, r := range p.EventData.Resources {
		event.Tags = append(event.Tags, r.Tag)
		event.Digests = append(event.Digests, r.Digest)
		event.ResourceURLs = append(event.ResourceURLs, r.ResourceURL)
	}
	out, err := api.MarshalToString(event)
	if err != nil {
		return "", errors.Wrap(err, errors.CodePayloadDecode, "failed to encode harbor event")
	}
	return out, nil
}
