package text

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

func TestReporter(t *testing.T) {
	color.NoColor = true
	start := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	report := domain.NewReport("tags", start)
	report.FinishedAt = start.Add(2 * time.Second)
	report.Inventory[domain.KindServer] = 3
	report.Skipped = 2
	report.Partial = []string{"listing volume incomplete"}
	report.Add(
		domain.TaskResult{Action: domain.ActionCreateTags, Kind: domain.KindVolume, Resource: "vol-1", Region: "r1", Detail: "2 tags from i-1"},
		domain.TaskResult{Action: domain.ActionCreateTags, Kind: domain.KindVolume, Resource: "vol-2", Region: "r1",
			Err: errors.NewUserFacing(errors.CodeMutationFailed, "tag limit reached", "Remove unused tags.")},
	)

	tests := []struct {
		name     string
		verbose  bool
		contains []string
		absent   []string
	}{
		{
			name:     "failures only",
			contains: []string{"Housekeeping Report: tags", "[FAILED]", "vol-2", "Remove unused tags.", "[PARTIAL]", "Listed server:", "Skipped:"},
			absent:   []string{"[OK]"},
		},
		{
			name:     "verbose",
			verbose:  true,
			contains: []string{"[OK]", "vol-1", "2 tags from i-1", "[FAILED]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewReporterWithWriter(Config{NoColor: true, Verbose: tt.verbose}, &buf, log.NewNop())

			require.NoError(t, r.Report(context.Background(), report))

			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestReporter_NoResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporterWithWriter(Config{NoColor: true}, &buf, log.NewNop())

	require.NoError(t, r.Report(context.Background(), domain.NewReport("names", time.Now())))
	assert.Contains(t, buf.String(), "No changes were needed.")
}
