package handlers

import (
	"encoding/json"

	"github.com/backsoul/quizcatalog/pkg/logger"
	websocketHub "github.com/backsoul/quizcatalog/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true
	},
}

// HandleWebSocket maneja GET /ws: empuja la pantalla de la sesión y recibe los cambios de tamaño de ventana
func (h *QuizHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	id := sessionFromCookie(ctx)
	if _, err := h.sessions.GetSession(id); id == "" || err != nil {
		respondWithError(ctx, fasthttp.StatusUnauthorized, "Sesión no encontrada")
		return
	}

	err := upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		h.hub.Register(id, ws)
		defer h.hub.Unregister(id, ws)

		// Enviar la pantalla actual al conectarse
		h.NotifySession(id)

		// Escuchar mensajes del cliente
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Log.Debug("Error leyendo mensaje WebSocket", zap.String("session", id), zap.Error(err))
				}
				return
			}

			var msg websocketHub.ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Log.Debug("Mensaje WebSocket inválido", zap.String("session", id), zap.Error(err))
				continue
			}

			switch msg.Type {
			case websocketHub.MessageResize:
				if err := h.sessions.SetViewport(id, msg.Width); err != nil {
					return
				}
				h.NotifySession(id)
			}
		}
	})

	if err != nil {
		logger.Log.Warn("Error upgrading to WebSocket", zap.Error(err))
	}
}
