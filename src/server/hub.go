package server

import (
	"encoding/json"
	"net/http"

	"market-collector/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It owns the client set.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()
			// Send the current task table on connect
			client.push(s.snapshot(nil))

		case client := <-s.unregister:
			s.dropClient(client)

		case task := <-s.broadcast:
			event := models.MTaskEvent{Type: models.TaskEventUpdate, Tasks: []models.MTaskProgress{task}}
			s.clientsMu.RLock()
			var slow []*Client
			for client := range s.clients {
				if !client.wants(task.ID) {
					continue
				}
				if !client.push(event) {
					// Client too slow, disconnect to keep the Hub moving
					slow = append(slow, client)
				}
			}
			s.clientsMu.RUnlock()
			for _, client := range slow {
				s.dropClient(client)
			}

		case <-s.done:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.clientsMu.Unlock()
			return
		}
	}
}

func (s *APIServer) dropClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		client.close()
	}
}

func (s *APIServer) connectionCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------

// feedTasks relays task manager updates to the Hub until Stop.
func (s *APIServer) feedTasks() {
	updates, cancel := s.tasks.Subscribe(256)
	defer cancel()
	for {
		select {
		case t, ok := <-updates:
			if !ok {
				return
			}
			s.Broadcast(t)
		case <-s.done:
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a task update for every interested client.
func (s *APIServer) Broadcast(payload interface{}) {
	var task models.MTaskProgress
	switch p := payload.(type) {
	case models.MTaskProgress:
		task = p
	case *models.MTaskProgress:
		if p == nil {
			return
		}
		task = *p
	default:
		s.Logger.Info("Broadcast expected a task, got %T", payload)
		return
	}

	select {
	case s.broadcast <- task:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// snapshot lists the tasks matching ids, every task when ids is empty.
func (s *APIServer) snapshot(ids []string) models.MTaskEvent {
	event := models.MTaskEvent{Type: models.TaskEventInitial, Tasks: []models.MTaskProgress{}}
	if s.tasks == nil {
		return event
	}
	for _, t := range s.tasks.List() {
		if len(ids) == 0 || contains(ids, t.ID) {
			event.Tasks = append(event.Tasks, t)
		}
	}
	return event
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}
	client.subscribe(cmd.TaskIDs)

	// A full buffer drops the reply; the next broadcast prunes the client
	client.push(s.snapshot(cmd.TaskIDs))
}
