package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/api/events", hub.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events"
	return hub, wsURL
}

func TestHub_BroadcastsScheduleChanged(t *testing.T) {
	hub, wsURL := setupTestHub(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// Give the register message time to land before broadcasting
	time.Sleep(50 * time.Millisecond)

	hub.ScheduleChanged(42)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "schedule_changed", msg.Type)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["channel_id"])
}

func TestHub_FansOutToAllSubscribers(t *testing.T) {
	hub, wsURL := setupTestHub(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		defer conn.Close()
		conns[i] = conn
	}

	time.Sleep(50 * time.Millisecond)
	hub.ScheduleChanged(7)

	for i, conn := range conns {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "subscriber %d should receive the event", i)

		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "schedule_changed", msg.Type)
	}
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.ScheduleChanged(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after hub stop")
	}
}
