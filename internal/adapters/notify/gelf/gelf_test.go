package gelf

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
)

func TestEncode_KeepsNonASCII(t *testing.T) {
	b, err := Encode("yuque-webhook", `{"title":"周报 <draft>"}`)

	require.NoError(t, err)
	assert.Contains(t, string(b), "周报 <draft>")
	assert.Equal(t, "1.1", jsoniter.Get(b, "version").ToString())
	assert.Equal(t, "yuque-webhook", jsoniter.Get(b, "host").ToString())
	assert.Equal(t, `{"title":"周报 <draft>"}`, jsoniter.Get(b, "short_message").ToString())
}

func TestPublish(t *testing.T) {
	var got []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewSink(Config{Address: srv.URL}, log.NewNop()).Publish(context.Background(), "harbor-webhook", `{"type":"PUSH_ARTIFACT"}`)

	require.NoError(t, err)
	assert.Equal(t, "application/json;charset=utf-8", contentType)
	assert.Equal(t, "harbor-webhook", jsoniter.Get(got, "host").ToString())
}

func TestPublish_Failures(t *testing.T) {
	t.Run("no address", func(t *testing.T) {
		err := NewSink(Config{}, log.NewNop()).Publish(context.Background(), "h", "m")
		assert.True(t, errors.Is(err, errors.CodeConfigValidation))
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewSink(Config{Address: srv.URL}, log.NewNop()).Publish(context.Background(), "h", "m")
		assert.True(t, errors.Is(err, errors.CodeNotificationFailed))
	})
}
