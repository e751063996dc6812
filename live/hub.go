// Package live рассылает обновления по хакатонам подключённым клиентам:
// занятость мест и смену статусов заявок, чтобы дашборды не опрашивали API.
package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
)

// Message — конверт события, уходящего в комнату хакатона.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run обслуживает регистрацию и отключение клиентов. Запускается одной
// горутиной из cmd/main.go.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.logger.Debug("client registered",
				slog.String("room", client.Room), slog.Int("room_size", len(h.rooms[client.Room])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// RoomID — имя комнаты хакатона.
func RoomID(hackathonID int) string {
	return "hackathon_" + strconv.Itoa(hackathonID)
}

// PublishHackathonUpdate реализует services.HackathonEventPublisher.
func (h *Hub) PublishHackathonUpdate(hackathonID int, eventType string, payload interface{}) {
	roomID := RoomID(hackathonID)
	h.broadcastToRoom(roomID, Message{
		Type:    eventType,
		Payload: payload,
		RoomID:  roomID,
	})
}

func (h *Hub) broadcastToRoom(roomID string, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal live message",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	for client := range clients {
		client.trySend(messageBytes)
	}
}
