package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/edflow/edflow/internal/platform/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin is already constrained by the CORS layer; the
		// websocket itself is gated on the token below.
		return true
	},
}

// Handler upgrades an authenticated request to a websocket and joins
// the client to its role channel. The token travels as a query
// parameter because browsers cannot set headers on websocket upgrades.
func Handler(hub *Hub, verify func(token string) (*auth.Identity, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		ident, err := verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 64),
			UserID: ident.UserID,
			Role:   ident.Role,
			channels: map[string]bool{
				RoleChannel(ident.Role):  true,
				"user:" + ident.UserID: true,
			},
		}
		hub.register(client)

		go client.writePump()
		go client.readPump()
		return nil
	}
}

// RoleChannel names the broadcast channel for a staff role.
func RoleChannel(role string) string {
	return "role:" + role
}
