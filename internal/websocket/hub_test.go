package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/staffsched/approvals/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("ws-secret")

func signed(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String(), "role": role}).SignedString(testSecret)
	require.NoError(t, err)
	return tok
}

func newServer(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	auth := middleware.NewAuth(testSecret)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, auth) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func dial(t *testing.T, srv *httptest.Server, token string) *gorillaws.Conn {
	t.Helper()
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorillaws.Conn) (Event, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev, nil
}

func TestServeWs_RejectsBadTokens(t *testing.T) {
	_, srv, _ := newServer(t)

	_, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorillaws.DefaultDialer.Dial(wsURL(srv, "garbage"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorillaws.DefaultDialer.Dial(wsURL(srv, signed(t, uuid.New(), "employee")), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_ScopesEventsToParticipants(t *testing.T) {
	hub, srv, _ := newServer(t)

	requester, approver, outsider := uuid.New(), uuid.New(), uuid.New()
	adminConn := dial(t, srv, signed(t, uuid.New(), "admin"))
	approverConn := dial(t, srv, signed(t, approver, "store_manager"))
	outsiderConn := dial(t, srv, signed(t, outsider, "store_manager"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(Event{
		Event:       EventApprovalApproved,
		ApprovalID:  "a1",
		Type:        "time_off",
		Status:      "approved",
		RequesterID: &requester,
		ApproverID:  &approver,
		At:          time.Now(),
	})

	got, err := readEvent(t, adminConn)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ApprovalID)

	got, err = readEvent(t, approverConn)
	require.NoError(t, err)
	assert.Equal(t, EventApprovalApproved, got.Event)

	_, err = readEvent(t, outsiderConn)
	assert.Error(t, err, "a manager outside the request must not receive it")
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub, srv, cancel := newServer(t)

	conn := dial(t, srv, signed(t, uuid.New(), "admin"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop()) // Run not started: nothing drains the queue
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Event: EventApprovalCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no hub loop running")
	}
}
