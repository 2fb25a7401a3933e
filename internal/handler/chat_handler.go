// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/middleware"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/service"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatRequest 是聊天接口的请求体。
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatHandler 负责处理聊天消息。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 处理 POST /chat，返回一次回合的结果。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request payload", "data": nil})
		return
	}

	res, err := h.chatService.ProcessTurn(c.Request.Context(), middleware.SessionID(c), req.Message)
	if err != nil {
		status, msg := turnError(err)
		c.JSON(status, gin.H{"code": status, "message": msg, "data": nil})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Stream 处理 /chat/ws：每条 {"message": "..."} 消息对应一条回合结果。
func (h *ChatHandler) Stream(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infow("WebSocket 连接已建立", "session", sessionID)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		res, err := h.chatService.ProcessTurn(c.Request.Context(), sessionID, req.Message)
		if err != nil {
			_, msg := turnError(err)
			if werr := conn.WriteJSON(gin.H{"type": "error", "message": msg}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(res); err != nil {
			log.Warnf("写入 WebSocket 消息失败: %v", err)
			return
		}
	}
}

func turnError(err error) (int, string) {
	if errors.Is(err, repository.ErrSessionLocked) {
		return http.StatusConflict, "another message for this session is still being processed"
	}
	log.Error("failed to process turn", err)
	return http.StatusInternalServerError, "failed to process message"
}
