package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/middleware"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/service"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// ConversationHandler 处理与会话历史相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetHistory 处理 GET /conversation-history。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	history, err := h.service.GetHistory(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		log.Error("GetHistory: failed to load session", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "Failed to retrieve conversation history",
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": history,
		"messageCount": len(history),
	})
}

// Reset 处理 POST /reset-session。
func (h *ConversationHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), middleware.SessionID(c)); err != nil {
		status, msg := turnError(err)
		c.JSON(status, gin.H{"code": status, "message": msg, "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Session reset"})
}
