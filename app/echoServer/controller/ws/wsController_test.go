package ws

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"librarymgmt/model"
	"librarymgmt/service/notify"
	jwtutil "librarymgmt/util/jwt"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "ws-test-secret"

func newWSServer(t *testing.T) (*httptest.Server, *notify.Hub) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := notify.NewHub(log)
	ctrl := &Controller{Hub: hub, Secret: testSecret, Log: log}

	e := echo.New()
	e.GET("/ws/admin", ctrl.Admin)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Shutdown)
	return srv, hub
}

func dialAdmin(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/admin"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func requireClosedWith(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, code, ce.Code)
}

func issueToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwtutil.Issue(testSecret, 1, "observer", role, 1)
	require.NoError(t, err)
	return tok
}

func TestAdmin_MissingToken(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dialAdmin(t, srv, "")
	requireClosedWith(t, conn, closeUnauthenticated)
}

func TestAdmin_InvalidToken(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dialAdmin(t, srv, "not-a-jwt")
	requireClosedWith(t, conn, closeUnauthenticated)
}

func TestAdmin_WrongSecret(t *testing.T) {
	srv, _ := newWSServer(t)
	tok, err := jwtutil.Issue("other-secret", 1, "observer", model.RoleAdmin, 1)
	require.NoError(t, err)
	conn := dialAdmin(t, srv, tok)
	requireClosedWith(t, conn, closeUnauthenticated)
}

func TestAdmin_MemberRejected(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dialAdmin(t, srv, issueToken(t, model.RoleMember))
	requireClosedWith(t, conn, closeForbidden)
}

func TestAdmin_ReceivesBookUpdate(t *testing.T) {
	srv, hub := newWSServer(t)
	conn := dialAdmin(t, srv, issueToken(t, model.RoleAdmin))

	// registration happens on the server side after the handshake
	require.Eventually(t, func() bool { return hub.Count() == 1 },
		2*time.Second, 10*time.Millisecond)

	hub.BroadcastBookUpdate(model.Book{
		ID:            3,
		Title:         "Dune",
		Genre:         "scifi",
		ShelfLocation: "A1",
		Available:     false,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notify.BookUpdate
	require.NoError(t, jsoniter.Unmarshal(msg, &ev))
	require.Equal(t, "book_update", ev.Event)
	require.Equal(t, int64(3), ev.BookID)
	require.False(t, ev.Available)
}

func TestAdmin_DisconnectRemovesObserver(t *testing.T) {
	srv, hub := newWSServer(t)
	conn := dialAdmin(t, srv, issueToken(t, model.RoleAdmin))

	require.Eventually(t, func() bool { return hub.Count() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}
