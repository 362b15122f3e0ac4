package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/corkboard-dev/corkboard/internal/types"
	"github.com/corkboard-dev/corkboard/internal/utils"
	"github.com/corkboard-dev/corkboard/internal/ws"
)

type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range types.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Connect upgrades the request and hands the connection to the hub. Auth
// already ran: the middleware accepts the token query parameter and the auth
// cookie, the two credentials a browser can attach to a websocket handshake.
func (h *WSHandler) Connect(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, userID)
	go h.hub.Serve(client)
}
