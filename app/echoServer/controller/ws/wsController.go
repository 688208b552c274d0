package ws

import (
	"log/slog"
	"net/http"
	"time"

	"librarymgmt/model"
	"librarymgmt/service/notify"
	jwtutil "librarymgmt/util/jwt"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Close codes sent to rejected observers, distinguishing a missing or
// invalid credential from an insufficient role.
const (
	closeUnauthenticated = 4401
	closeForbidden       = 4403
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Controller struct {
	Hub    *notify.Hub
	Secret string
	Log    *slog.Logger
}

// GET /ws/admin?token=JWT
//
// Admin dashboards subscribe here for book_update events. The bearer token
// travels in the query string because browsers cannot set headers on a
// WebSocket handshake.
func (h *Controller) Admin(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	token := c.QueryParam("token")
	if token == "" {
		closeWith(conn, closeUnauthenticated, "missing token")
		return nil
	}
	claims, err := jwtutil.Parse(token, h.Secret)
	if err != nil {
		closeWith(conn, closeUnauthenticated, "invalid token")
		return nil
	}
	if claims.Role != model.RoleAdmin {
		closeWith(conn, closeForbidden, "admin privilege required")
		return nil
	}

	cl := newClient(h.Hub, conn)
	h.Hub.Connect(cl)
	h.Log.Info("admin observer joined", "username", claims.Username)
	cl.run()
	return nil
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
