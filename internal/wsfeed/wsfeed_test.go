package wsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caba911/dispatch/internal/tracking"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)
	hub.Publish("tracking_update", map[string]string{"resource_id": "v1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "tracking_update", msg.Type)
}

func TestCheckOriginAllowsConfiguredOrigins(t *testing.T) {
	hub := NewHub()
	hub.SetAllowedOrigins([]string{"https://ops.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	assert.True(t, hub.checkOrigin(req))

	req2 := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req2.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.checkOrigin(req2))
}

func TestCheckOriginAllowsAllWhenUnset(t *testing.T) {
	hub := NewHub()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	assert.True(t, hub.checkOrigin(req))
}

func TestPollerPublishesOnInterval(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	calls := make(chan struct{}, 4)
	source := func(now time.Time) []tracking.Snapshot {
		calls <- struct{}{}
		return []tracking.Snapshot{{ResourceID: "v1"}}
	}

	poller := NewPoller(hub, source, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	assert.GreaterOrEqual(t, len(calls), 2)
}
