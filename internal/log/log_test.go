package log

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, jsoniter.Unmarshal(line, &rec))
		out = append(out, rec)
	}
	return out
}

func TestJSONLoggerAddsFieldsAndErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(Config{Level: LevelDebug, Format: FormatJSON}, &buf)
	require.NoError(t, err)

	ctx := context.Background()
	taskLog := logger.WithFields(map[string]any{"task": "snapshots"})
	taskLog.Infof(ctx, "rotating %d volumes", 3)
	taskLog.Errorf(ctx, apperrors.Wrap(fmt.Errorf("throttled"), apperrors.CodePlatformThrottled, "create snapshot"), "create failed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "rotating 3 volumes", lines[0]["msg"])
	assert.Equal(t, "snapshots", lines[0]["task"])
	assert.Equal(t, string(apperrors.CodePlatformThrottled), lines[1]["error_code"])
	assert.Equal(t, "throttled", lines[1]["error_wrapped"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(Config{Level: LevelWarn, Format: FormatJSON}, &buf)
	require.NoError(t, err)

	logger.Debugf(context.Background(), "hidden")
	logger.Infof(context.Background(), "hidden")
	logger.Warnf(context.Background(), "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewLoggerWithWriter(Config{Format: "xml"}, &bytes.Buffer{})
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}

func TestNilContextDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(DefaultConfig(), &buf)
	require.NoError(t, err)

	//nolint:staticcheck
	assert.NotPanics(t, func() { logger.Infof(nil, "limiter ready") })
	assert.Contains(t, buf.String(), "limiter ready")
}
