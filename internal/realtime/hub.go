// Package realtime pushes game events to browsers over websockets.
// Clients subscribe to a game's room with an enterGame command.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"planningpoker/internal/apperr"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// GameLookup resolves games for enterGame commands. *service.GameService implements it.
type GameLookup interface {
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	CheckPassword(game *models.Game, password string) bool
}

// Command is a message sent by a client
type Command struct {
	Event string      `json:"event"`
	Data  CommandData `json:"data"`
}

// CommandData is the payload of enterGame and leaveGame
type CommandData struct {
	GameID   string `json:"gameId"`
	Password string `json:"password,omitempty"`
}

// Hub keeps the websocket clients of every game room and implements events.Sink
type Hub struct {
	games    GameLookup
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub. allowedOrigin restricts browser origins; empty allows any.
func NewHub(games GameLookup, allowedOrigin string) *Hub {
	h := &Hub{
		games: games,
		rooms: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || strings.EqualFold(origin, allowedOrigin)
		},
	}
	return h
}

// Emit broadcasts event to every client in the game's room. Clients whose
// buffer is full are disconnected rather than blocking the caller.
func (h *Hub) Emit(_ context.Context, gameID string, event events.Event) error {
	if event.RoomID == "" {
		event.RoomID = events.RoomID(gameID)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[gameID]))
	for c := range h.rooms[gameID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(payload) {
			log.Printf("Dropping slow websocket client in room %s", events.RoomID(gameID))
			h.disconnect(c)
		}
	}
	return nil
}

// ClientCount returns the number of clients in a game's room
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// ServeHTTP upgrades the request to a websocket and serves the client
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	go c.writePump()
	c.readPump()
}

func (h *Hub) join(c *client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(c *client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, gameID)
}

func (h *Hub) removeLocked(c *client, gameID string) {
	room, ok := h.rooms[gameID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// disconnect removes c from every room and stops its writer
func (h *Hub) disconnect(c *client) {
	h.mu.Lock()
	for gameID := range h.rooms {
		h.removeLocked(c, gameID)
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

func (h *Hub) handleCommand(ctx context.Context, c *client, cmd Command) {
	gameID := strings.TrimSpace(cmd.Data.GameID)
	switch cmd.Event {
	case events.EnterGame:
		game, err := h.games.GetGame(ctx, gameID)
		if err != nil {
			c.reply(events.NewError(userMessage(err)))
			return
		}
		if !h.games.CheckPassword(game, cmd.Data.Password) {
			c.reply(events.NewError("Invalid password for game '" + game.ID + "'."))
			return
		}
		h.join(c, game.ID)
		c.reply(events.NewGameEntered(game.ID))
	case events.LeaveGame:
		h.leave(c, gameID)
	default:
		c.reply(events.NewError("Unknown event '" + cmd.Event + "'."))
	}
}

func (c *client) reply(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode websocket reply: %v", err)
		return
	}
	if !c.trySend(payload) {
		c.hub.disconnect(c)
	}
}

// trySend queues payload without blocking. It reports false when the buffer
// is full or the client is closed.
func (c *client) trySend(payload []byte) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error: %v", err)
			}
			if isDecodeError(err) {
				c.reply(events.NewError("Malformed message."))
				continue
			}
			return
		}
		c.hub.handleCommand(context.Background(), c, cmd)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func userMessage(err error) string {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err.Error()
	}
	log.Printf("Websocket command failed: %v", err)
	return "Internal server error"
}
