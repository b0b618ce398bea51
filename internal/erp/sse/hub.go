package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventStageUpdate     = "stage_update"
	EventProjectUpdate   = "project_update"
	EventWarehouseUpdate = "warehouse_update"
	EventDealUpdate      = "deal_update"
	EventShipmentUpdate  = "shipment_update"
	EventStageAssigned   = "stage_assigned"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// KnownEvents 客户端可订阅的事件类型
var KnownEvents = []string{
	EventStageUpdate,
	EventProjectUpdate,
	EventWarehouseUpdate,
	EventDealUpdate,
	EventShipmentUpdate,
	EventStageAssigned,
}

// IsKnownEvent 是否为已定义的事件类型
func IsKnownEvent(eventType string) bool {
	for _, e := range KnownEvents {
		if e == eventType {
			return true
		}
	}
	return false
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	// Topics 为空时接收全部事件
	Topics map[string]bool
	Events chan Event
}

// Wants 客户端是否订阅了该事件
func (c *Client) Wants(eventType string) bool {
	return len(c.Topics) == 0 || c.Topics[eventType]
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub(zap.NewNop())

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// SetLogger 替换日志器（main 初始化 zap 之后调用）
func (h *Hub) SetLogger(logger *zap.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.Wants(event.EventType) {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// Publish 广播实体变更，前端据此失效缓存并重新拉取
func (h *Hub) Publish(eventType string, payload map[string]string) {
	data, _ := json.Marshal(payload)
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}

// PublishStageUpdate 阶段变更
func PublishStageUpdate(projectID, stageID, action string) {
	GlobalHub.Publish(EventStageUpdate, map[string]string{
		"project_id": projectID,
		"stage_id":   stageID,
		"action":     action,
	})
}

// PublishProjectUpdate 项目级别更新（创建、进度、删除）
func PublishProjectUpdate(projectID, action string) {
	GlobalHub.Publish(EventProjectUpdate, map[string]string{
		"project_id": projectID,
		"action":     action,
	})
}

// PublishWarehouseUpdate 物料数量或状态变化
func PublishWarehouseUpdate(itemID, status, action string) {
	GlobalHub.Publish(EventWarehouseUpdate, map[string]string{
		"item_id": itemID,
		"status":  status,
		"action":  action,
	})
}

// PublishDealUpdate 看板变化
func PublishDealUpdate(dealID, stage, action string) {
	GlobalHub.Publish(EventDealUpdate, map[string]string{
		"deal_id": dealID,
		"stage":   stage,
		"action":  action,
	})
}

// PublishShipmentUpdate 发货单状态变化
func PublishShipmentUpdate(shipmentID, status string) {
	GlobalHub.Publish(EventShipmentUpdate, map[string]string{
		"shipment_id": shipmentID,
		"status":      status,
	})
}

// SendToUser 给特定用户发送事件（而非广播）
func SendToUser(userID string, event Event) {
	GlobalHub.mu.RLock()
	defer GlobalHub.mu.RUnlock()
	for _, client := range GlobalHub.clients {
		if client.UserID == userID && client.Wants(event.EventType) {
			select {
			case client.Events <- event:
			default:
				GlobalHub.logger.Warn("sse client buffer full, skipping user event", zap.String("client_id", client.ID))
			}
		}
	}
}

// NotifyStageAssigned 通知新的阶段负责人
func NotifyStageAssigned(userID, projectID, stageID, stageName string) {
	data, _ := json.Marshal(map[string]string{
		"project_id": projectID,
		"stage_id":   stageID,
		"name":       stageName,
	})
	SendToUser(userID, Event{EventType: EventStageAssigned, Data: string(data)})
}
