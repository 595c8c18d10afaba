package json

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const ReporterTypeJSON = "json"

var api = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

type Config struct {
	Indent bool `mapstructure:"indent"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	return NewReporterWithWriter(cfg, os.Stdout, logger)
}

func NewReporterWithWriter(cfg Config, w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		return nil, errors.New(errors.CodeInternal, "report writer cannot be nil")
	}
	return &Reporter{config: cfg, writer: w, logger: logger}, nil
}

// Document is the serialised form of a task report.
type Document struct {
	Task       string         `json:"task"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Inventory  map[string]int `json:"inventory"`
	Summary    []ActionCount  `json:"summary"`
	Skipped    int            `json:"skipped"`
	Partial    []string       `json:"partial,omitempty"`
	Notices    []string       `json:"notices,omitempty"`
	Results    []ResultItem   `json:"results"`
}

type ActionCount struct {
	Action    domain.Action `json:"action"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

type ResultItem struct {
	Action       domain.Action       `json:"action"`
	Kind         domain.ResourceKind `json:"kind"`
	Resource     string              `json:"resource"`
	Region       string              `json:"region,omitempty"`
	Detail       string              `json:"detail,omitempty"`
	ErrorCode    string              `json:"error_code,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

// NewDocument flattens a report. Results are ordered by action, kind and
// resource so two runs over the same account serialise identically.
func NewDocument(report *domain.Report) Document {
	doc := Document{
		Task:       report.Task,
		StartedAt:  report.StartedAt,
		DurationMS: report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		Inventory:  make(map[string]int, len(report.Inventory)),
		Skipped:    report.Skipped,
		Partial:    report.Partial,
		Notices:    report.Notices,
		Results:    make([]ResultItem, 0, len(report.Results)),
	}
	for kind, n := range report.Inventory {
		doc.Inventory[kind.String()] = n
	}

	counts := map[domain.Action]*ActionCount{}
	for _, res := range report.Results {
		c, ok := counts[res.Action]
		if !ok {
			c = &ActionCount{Action: res.Action}
			counts[res.Action] = c
		}
		item := ResultItem{
			Action:   res.Action,
			Kind:     res.Kind,
			Resource: res.Resource,
			Region:   res.Region,
			Detail:   res.Detail,
		}
		if res.Err != nil {
			c.Failed++
			item.ErrorCode = errors.GetCode(res.Err).String()
			item.ErrorMessage = res.Err.Error()
		} else {
			c.Succeeded++
		}
		doc.Results = append(doc.Results, item)
	}
	for _, c := range counts {
		doc.Summary = append(doc.Summary, *c)
	}
	sort.Slice(doc.Summary, func(i, j int) bool { return doc.Summary[i].Action < doc.Summary[j].Action })
	sort.SliceStable(doc.Results, func(i, j int) bool {
		a, b := doc.Results[i], doc.Results[j]
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Resource < b.Resource
	})
	return doc
}

// Marshal encodes a report without indentation.
func Marshal(report *domain.Report) ([]byte, error) {
	b, err := api.Marshal(NewDocument(report))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode report")
	}
	return b, nil
}

func (r *Reporter) Report(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return errors.New(errors.CodeInternal, "nil report")
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warnf(ctx, "JSON report generation cancelled.")
		return err
	}

	encoder := api.NewEncoder(r.writer)
	if r.config.Indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(NewDocument(report)); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		fmt.Fprintf(r.writer, "{\"error\": \"failed to generate JSON report: %v\"}\n", err)
		return errors.Wrap(err, errors.CodeInternal, "failed to encode JSON report")
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
