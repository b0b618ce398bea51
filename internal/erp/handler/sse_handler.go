package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/gin-gonic/gin"
)

const sseHeartbeat = 30 * time.Second

// SSEHandler 实体变更推送
type SSEHandler struct {
	hub *sse.Hub
}

// NewSSEHandler 创建推送处理器
func NewSSEHandler() *SSEHandler {
	return &SSEHandler{hub: sse.GlobalHub}
}

// parseTopics 解析 events=stage_update,warehouse_update；为空表示全部
func parseTopics(raw string) (map[string]bool, error) {
	topics := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if !sse.IsKnownEvent(name) {
			return nil, fmt.Errorf("未知事件类型: %s", name)
		}
		topics[name] = true
	}
	return topics, nil
}

// Stream GET /api/v1/sse/events?token=xxx&events=stage_update,deal_update
// 浏览器 EventSource 不能带 Authorization 头，token 走查询参数
func (h *SSEHandler) Stream(c *gin.Context) {
	topics, err := parseTopics(c.Query("events"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID := GetUserID(c)
	client := &sse.Client{
		ID:     fmt.Sprintf("%s_%d", userID, time.Now().UnixNano()),
		UserID: userID,
		Topics: topics,
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	subscribed := make([]string, 0, len(topics))
	for name := range topics {
		subscribed = append(subscribed, name)
	}
	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"client_id\":%q,\"events\":%q}\n\n",
		client.ID, strings.Join(subscribed, ","))
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.EventType, event.Data)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
