package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hackmate/hackathon-system/live"
	"github.com/hackmate/hackathon-system/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: сверять Origin со списком доверенных доменов из конфига.
		return true
	},
}

type WebSocketHandler struct {
	hub              *live.Hub
	hackathonService services.HackathonService
}

func NewWebSocketHandler(hub *live.Hub, hs services.HackathonService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:              hub,
		hackathonService: hs,
	}
}

// ServeWs обрабатывает GET /ws/hackathons/{hackathonID}:
// подключает клиента к комнате live-обновлений хакатона.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	hackathonID, err := getIDFromURL(r, "hackathonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.hackathonService.GetByID(r.Context(), hackathonID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		slog.Error("failed to upgrade websocket connection",
			slog.Int("hackathon_id", hackathonID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.RoomID(hackathonID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
