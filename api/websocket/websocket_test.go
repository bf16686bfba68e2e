package websocket_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/api/websocket"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewSettings(t *testing.T) {
	defaults := websocket.NewSettings(nil)
	assert.Equal(t, 100, defaults.MaxConnections)
	assert.Less(t, defaults.PingInterval, defaults.PongTimeout)

	s := websocket.NewSettings(&config.WebSocketConfig{
		MaxConnections: 2,
		PongTimeout:    10 * time.Second,
		PingInterval:   30 * time.Second,
	})
	assert.Equal(t, 2, s.MaxConnections)
	// a ping interval longer than the pong timeout is ignored
	assert.Equal(t, 9*time.Second, s.PingInterval)
}

func TestFromEvent(t *testing.T) {
	tests := []struct {
		eventType models.EventType
		want      websocket.MessageType
	}{
		{models.EventTypeRunStarted, websocket.MessageTypeRunStarted},
		{models.EventTypeLabelsGenerated, websocket.MessageTypeProgress},
		{models.EventTypeFeaturesExtracted, websocket.MessageTypeProgress},
		{models.EventTypeModelTrained, websocket.MessageTypeModel},
		{models.EventTypeRiskAssessed, websocket.MessageTypeRiskSummary},
		{models.EventTypeAlert, websocket.MessageTypeAlert},
		{models.EventTypeRunFailed, websocket.MessageTypeRunFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			msg := websocket.FromEvent(&models.Event{Type: tt.eventType, RunID: "run-1"})
			require.NotNil(t, msg)
			assert.Equal(t, tt.want, msg.Type)
			assert.Equal(t, "run-1", msg.RunID)
		})
	}

	assert.Nil(t, websocket.FromEvent(&models.Event{Type: "heartbeat"}))
}

func dial(t *testing.T, srv *httptest.Server, query string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *gorilla.Conn) websocket.OutgoingMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg websocket.OutgoingMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_RoutesByRun(t *testing.T) {
	hub := websocket.NewHub(&config.WebSocketConfig{})
	go hub.Run()
	defer hub.Stop()

	events := make(chan *models.Event, 4)
	bridge := websocket.NewEventBridge(hub, events)
	bridge.Start()
	defer bridge.Stop()

	r := gin.New()
	r.GET("/ws", websocket.ServeWebSocket(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	all := dial(t, srv, "")
	runA := dial(t, srv, "?run_id=run-a")

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	events <- &models.Event{Type: models.EventTypeRunStarted, RunID: "run-b", Message: "b started"}
	events <- &models.Event{Type: models.EventTypeRunStarted, RunID: "run-a", Message: "a started"}

	assert.Equal(t, "b started", read(t, all).Message)
	assert.Equal(t, "a started", read(t, all).Message)
	// run-b never reaches the run-a subscriber
	assert.Equal(t, "a started", read(t, runA).Message)

	require.NoError(t, runA.WriteJSON(websocket.IncomingMessage{Type: "unsubscribe"}))
	confirm := read(t, runA)
	assert.Equal(t, websocket.MessageTypeSubscription, confirm.Type)
	assert.Equal(t, "unsubscribed", confirm.Message)

	events <- &models.Event{Type: models.EventTypeRunCompleted, RunID: "run-b", Message: "b done"}
	assert.Equal(t, "b done", read(t, runA).Message)
}

func TestServeWebSocket_ConnectionLimit(t *testing.T) {
	hub := websocket.NewHub(&config.WebSocketConfig{MaxConnections: 1})
	countCh := make(chan int, 8)
	hub.OnCountChange = func(n int) { countCh <- n }
	go hub.Run()
	defer hub.Stop()

	r := gin.New()
	r.GET("/ws", websocket.ServeWebSocket(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	dial(t, srv, "")
	assert.Equal(t, 1, <-countCh)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}
