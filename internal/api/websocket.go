package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thelabel/label-engine/internal/printer"
)

// WebSocket message types
const (
	EventCommand      = "command"
	EventStateChanged = "state_changed"
	EventBatchDone    = "batch_completed"
	EventResponse     = "response"
	EventError        = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	mu     sync.Mutex
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		fmt.Printf("WebSocket upgrade failed: %v\n", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	// New clients get the current status straight away
	status := s.manager.Status()
	client.send <- WSMessage{
		Event: EventStateChanged,
		Data: map[string]interface{}{
			"connected": status.Connected,
			"state":     status.State,
		},
	}

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.mu.Lock()
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()

		if err != nil {
			fmt.Printf("WebSocket write error: %v\n", err)
			return
		}
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventCommand:
		c.handleCommandEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

// handleCommandEvent routes a command string through the executor
func (c *WSClient) handleCommandEvent(data map[string]interface{}) {
	cmdStr, ok := data["command"].(string)
	if !ok || cmdStr == "" {
		c.sendError("command is required")
		return
	}

	result := c.server.executor.Execute(cmdStr)
	if !result.Success {
		c.sendError(result.Error)
		return
	}

	response := map[string]interface{}{
		"success": true,
	}
	if result.Message != "" {
		response["message"] = result.Message
	}
	for k, v := range result.Data {
		response[k] = v
	}
	c.sendResponse(response)
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.send <- WSMessage{
		Event: EventResponse,
		Data:  data,
	}
}

// Client tracking for broadcasts
var (
	clients   = make(map[*WSClient]bool)
	clientsMu sync.RWMutex
)

func addClient(client *WSClient) {
	clientsMu.Lock()
	clients[client] = true
	clientsMu.Unlock()
}

func removeClient(client *WSClient) {
	clientsMu.Lock()
	delete(clients, client)
	clientsMu.Unlock()
}

func (c *WSClient) readPump() {
	defer func() {
		removeClient(c)
		c.conn.Close()
	}()

	addClient(c)

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("WebSocket error: %v\n", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) sendError(message string) {
	c.send <- WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	}
}

// BroadcastState pushes a connection state change to all connected
// clients
func (s *Server) BroadcastState(state printer.ConnectionState) {
	s.broadcast(WSMessage{
		Event: EventStateChanged,
		Data: map[string]interface{}{
			"connected": state == printer.StateConnected,
			"state":     state.String(),
		},
	})
}

// BroadcastBatch pushes a batch outcome to all connected clients
func (s *Server) BroadcastBatch(completed int, err error) {
	data := map[string]interface{}{
		"completed": completed,
		"success":   err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	s.broadcast(WSMessage{Event: EventBatchDone, Data: data})
}

func (s *Server) broadcast(message WSMessage) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer full, skip
		}
	}
}
