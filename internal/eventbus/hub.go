// Package eventbus fans proposal and schedule-status events out to
// connected dashboard clients over Server-Sent Events.
package eventbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Event is one fan-out message: an EventType the dashboard switches on
// and a JSON-encoded Data payload.
type Event struct {
	EventType string
	Data      string
}

// Client is one connected dashboard subscriber.
type Client struct {
	ID     string
	Events chan Event
}

// Hub tracks connected clients and broadcasts events to all of them. It
// never blocks a slow consumer: a full buffer drops the event for that
// client rather than stalling the broadcaster.
type Hub struct {
	log     *zap.Logger
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log, clients: make(map[string]*Client)}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.log.Info("event client registered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
}

func (h *Hub) unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.log.Info("event client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.log.Warn("event client buffer full, dropping event", zap.String("client_id", client.ID))
		}
	}
}

// PublishProposalCreated notifies the dashboard that a new schedule
// proposal is awaiting operator action.
func (h *Hub) PublishProposalCreated(proposalID string, lateCount int) {
	h.Broadcast(Event{
		EventType: "proposal_created",
		Data:      fmt.Sprintf(`{"proposal_id":"%s","late_count":%d}`, proposalID, lateCount),
	})
}

// PublishScheduleApproved notifies the dashboard that a proposal was
// approved and is now the active schedule.
func (h *Hub) PublishScheduleApproved(scheduleID string) {
	h.Broadcast(Event{
		EventType: "schedule_approved",
		Data:      fmt.Sprintf(`{"schedule_id":"%s"}`, scheduleID),
	})
}

// PublishFactoryFailure notifies the dashboard of an unresolved or
// resolved factory-reported failure.
func (h *Hub) PublishFactoryFailure(soID, poID string) {
	h.Broadcast(Event{
		EventType: "factory_failure",
		Data:      fmt.Sprintf(`{"sales_order_id":"%s","production_order_id":"%s"}`, soID, poID),
	})
}

// Stream is the gin handler for the SSE endpoint. Each connection
// registers its own Client and is unregistered on disconnect.
func (h *Hub) Stream(c *gin.Context) {
	clientID := fmt.Sprintf("dashboard_%d", time.Now().UnixNano())
	client := &Client{ID: clientID, Events: make(chan Event, 64)}
	h.register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
