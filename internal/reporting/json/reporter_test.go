package json

import (
	"bytes"
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

func sampleReport() *domain.Report {
	start := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	r := domain.NewReport("snapshots", start)
	r.FinishedAt = start.Add(1500 * time.Millisecond)
	r.Inventory[domain.KindVolume] = 2
	r.Skipped = 1
	r.Notices = []string{"robot offline"}
	r.Add(
		domain.TaskResult{Action: domain.ActionCreateSnapshot, Kind: domain.KindVolume, Resource: "vol-2", Region: "r1", Detail: "snap-2"},
		domain.TaskResult{Action: domain.ActionCreateSnapshot, Kind: domain.KindVolume, Resource: "vol-1", Region: "r1", Detail: "snap-1"},
		domain.TaskResult{Action: domain.ActionDeleteSnapshot, Kind: domain.KindSnapshot, Resource: "snap-0", Region: "r1",
			Err: errors.New(errors.CodeMutationFailed, "in use")},
	)
	return r
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleReport())

	assert.Equal(t, "snapshots", doc.Task)
	assert.Equal(t, int64(1500), doc.DurationMS)
	assert.Equal(t, map[string]int{"volume": 2}, doc.Inventory)
	assert.Equal(t, []ActionCount{
		{Action: domain.ActionCreateSnapshot, Succeeded: 2},
		{Action: domain.ActionDeleteSnapshot, Failed: 1},
	}, doc.Summary)
	require.Len(t, doc.Results, 3)
	assert.Equal(t, "vol-1", doc.Results[0].Resource)
	assert.Equal(t, "MUTATION_FAILED", doc.Results[2].ErrorCode)
}

func TestReporter_WritesDocument(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewReporterWithWriter(Config{Indent: true}, &buf, log.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), sampleReport()))

	var decoded Document
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "snapshots", decoded.Task)
	assert.Equal(t, []string{"robot offline"}, decoded.Notices)
	assert.Len(t, decoded.Results, 3)
}

func TestReporter_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	r, _ := NewReporterWithWriter(Config{}, &buf, log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Report(ctx, sampleReport()), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestMarshal(t *testing.T) {
	b, err := Marshal(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "snapshots", jsoniter.Get(b, "task").ToString())
	assert.Equal(t, 2, jsoniter.Get(b, "inventory", "volume").ToInt())
}
