package cloudwatch

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

var bodyJSON = jsoniter.Config{EscapeHTML: false}.Froze()

// Layout controls how members are spread over dashboard widgets.
type Layout struct {
	MetricsPerWidget int    `mapstructure:"metrics_per_widget" validate:"gte=1,lte=500"`
	Width            int    `mapstructure:"width" validate:"gte=1,lte=24"`
	Height           int    `mapstructure:"height" validate:"gte=1"`
	Period           int    `mapstructure:"period" validate:"gte=60"`
	Stat             string `mapstructure:"stat" validate:"required"`
}

func DefaultLayout() Layout {
	return Layout{MetricsPerWidget: 100, Width: 24, Height: 6, Period: 300, Stat: "Average"}
}

type dashboardBody struct {
	Widgets []widget `json:"widgets"`
}

type widget struct {
	Type       string           `json:"type"`
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Properties widgetProperties `json:"properties"`
}

type widgetProperties struct {
	Title   string  `json:"title"`
	View    string  `json:"view"`
	Region  string  `json:"region"`
	Stat    string  `json:"stat"`
	Period  int     `json:"period"`
	Metrics [][]any `json:"metrics"`
}

// Render builds the dashboard body. Members must already be ordered by region;
// each region gets its own run of widgets.
func (l Layout) Render(group domain.MonitorGroup) (string, error) {
	body := dashboardBody{Widgets: []widget{}}

	var (
		region string
		rows   [][]any
		part   int
	)
	flush := func() {
		if len(rows) == 0 {
			return
		}
		part++
		body.Widgets = append(body.Widgets, widget{
			Type:   "metric",
			X:      0,
			Y:      len(body.Widgets) * l.Height,
			Width:  l.Width,
			Height: l.Height,
			Properties: widgetProperties{
				Title:   fmt.Sprintf("%s %s (%d)", group.Metric.Name, region, part),
				View:    "timeSeries",
				Region:  region,
				Stat:    l.Stat,
				Period:  l.Period,
				Metrics: rows,
			},
		})
		rows = nil
	}

	for _, m := range group.Members {
		if m.Region != region {
			flush()
			region = m.Region
			part = 0
		}
		row := []any{group.Metric.Namespace, group.Metric.Name}
		for _, d := range m.Dimensions {
			row = append(row, d.Name, d.Value)
		}
		rows = append(rows, row)
		if len(rows) >= l.MetricsPerWidget {
			flush()
		}
	}
	flush()

	b, err := bodyJSON.MarshalToString(body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("failed to encode dashboard %s", group.Name))
	}
	return b, nil
}
