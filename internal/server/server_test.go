package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-oagis/internal/config"
	"github.com/sirosfoundation/go-oagis/internal/dispatch"
	"github.com/sirosfoundation/go-oagis/internal/storage"
	"github.com/sirosfoundation/go-oagis/internal/storage/memory"
	"github.com/sirosfoundation/go-oagis/pkg/envelope"
)

const syncInventoryXML = `<?xml version="1.0" encoding="UTF-8"?>
<SYNC_INVENTORY_001>
  <CNTROLAREA>
    <BSR>
      <VERB>SYNC</VERB>
      <NOUN>INVENTORY</NOUN>
      <REVISION>001</REVISION>
    </BSR>
    <SENDER>
      <LOGICALID>PARTNER</LOGICALID>
      <COMPONENT>INVENTORY</COMPONENT>
      <TASK>SYNC</TASK>
      <REFERENCEID>M-3003</REFERENCEID>
    </SENDER>
    <DATETIMEISO>2024-01-01T10:00:00.0000Z</DATETIMEISO>
  </CNTROLAREA>
</SYNC_INVENTORY_001>`

func newTestServer(t *testing.T, store storage.Store) *Server {
	t.Helper()
	handler := dispatch.HandlerFunc(func(ctx context.Context, env *envelope.Envelope) *dispatch.Result {
		err := store.CreateMessage(ctx, &storage.MessageRecord{
			Key:       storage.MessageKey(env.Sender.Ref),
			Direction: storage.DirectionIncoming,
			Status:    storage.StatusReceived,
		})
		require.NoError(t, err)
		return &dispatch.Result{Success: true}
	})
	d := dispatch.New(store, dispatch.Routes{SyncInventory: handler}, nil)
	cfg := &config.Config{}
	cfg.Server.BasePath = "/oagis"
	return New(cfg, store, d, nil)
}

func TestHandleMessage(t *testing.T) {
	srv := newTestServer(t, memory.NewStore())

	w := httptest.NewRecorder()
	srv.handleMessage(w, httptest.NewRequest(http.MethodPost, "/oagis", strings.NewReader(syncInventoryXML)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var result dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
}

func TestHandleMessage_DispatchErrorsStillReturn200(t *testing.T) {
	srv := newTestServer(t, memory.NewStore())

	w := httptest.NewRecorder()
	srv.handleMessage(w, httptest.NewRequest(http.MethodPost, "/oagis", strings.NewReader("not xml")))

	require.Equal(t, http.StatusOK, w.Code)
	var result dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestHandleMessage_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, memory.NewStore())

	w := httptest.NewRecorder()
	srv.handleMessage(w, httptest.NewRequest(http.MethodGet, "/oagis", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, memory.NewStore())

	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
