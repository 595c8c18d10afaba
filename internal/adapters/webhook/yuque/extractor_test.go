package yuque

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name: "audit event",
			payload: `{"data":{"action":"export","actor":{"name":"王五","id":7},"auditable":{"type":"Doc","title":"发布 <v2>","format":"pdf"},` +
				`"group":{"description":"infra team"},"auditable_type":"Doc","created_at":"2026-10-15T08:00:00.000Z","ip":"10.0.0.8"}}`,
			want: `{"username":"王五","action":"export","file_type":"Doc","title":"发布 <v2>","export_format":"pdf",` +
				`"description":"infra team","auditable_type":"Doc","created_at":"2026-10-15T08:00:00.000Z","ip":"10.0.0.8"}`,
		},
		{
			name:    "partial event keeps nulls",
			payload: `{"data":{"action":"login","actor":null,"ip":"10.0.0.9"}}`,
			want: `{"username":null,"action":"login","file_type":null,"title":null,"export_format":null,` +
				`"description":null,"auditable_type":null,"created_at":null,"ip":"10.0.0.9"}`,
		},
		{
			name:    "no data forwards whole payload",
			payload: ` {"ping":"pong"}` + "\n",
			want:    `{"ping":"pong"}`,
		},
		{
			name:    "empty data forwards whole payload",
			payload: `{"data":{}}`,
			want:    `{"data":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extractor{}.ShortMessage([]byte(tt.payload))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "yuque", Extractor{}.Source())
	assert.Equal(t, "yuque-webhook", Extractor{}.Host())
}
