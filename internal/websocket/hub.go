package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "ingestion_events"

// Hub fans ingestion status updates out to the owning tenant's open
// websocket connections. Redis pub/sub relays updates across instances so a
// tenant connected elsewhere still receives them.
type Hub struct {
	// TenantID -> connections (multi-device)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TenantID] = append(h.clients[client.TenantID], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"tenant_id": client.TenantID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TenantID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.TenantID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.TenantID]) == 0 {
					delete(h.clients, client.TenantID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send pushes a file status update to the tenant's local connections and
// relays it through Redis for connections held by other instances.
func (h *Hub) Send(tenantId uuid.UUID, event dto.FileStatusEvent) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "ingestion_status",
		"data": event,
	})
	if err != nil {
		h.logger.Error("hub", "failed to serialize status event", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliverLocal(tenantId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			TargetTenantID: tenantId.String(),
			Message:        data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

type clusterMessage struct {
	TargetTenantID string          `json:"target_tenant_id"`
	Message        json.RawMessage `json:"message"`
}

func (h *Hub) deliverLocal(tenantId uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := h.clients[tenantId]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("hub", "client buffer full, dropping connection", map[string]interface{}{"tenant_id": tenantId})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("hub", "malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		tenantId, err := uuid.Parse(payload.TargetTenantID)
		if err != nil {
			continue
		}
		h.deliverLocal(tenantId, payload.Message)
	}
}
