package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/service"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// AdminHandler 负责处理管理端的查询接口。
type AdminHandler struct {
	conversationService service.ConversationService
	analyticsService    service.AnalyticsService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(conversationService service.ConversationService, analyticsService service.AnalyticsService) *AdminHandler {
	return &AdminHandler{
		conversationService: conversationService,
		analyticsService:    analyticsService,
	}
}

// ListConversations 返回所有会话，最近活跃的排在前面。
func (h *AdminHandler) ListConversations(c *gin.Context) {
	sessions, err := h.conversationService.ListAll(c.Request.Context())
	if err != nil {
		log.Error("ListConversations: failed to list sessions", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取会话列表失败", "data": nil})
		return
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": sessions})
}

// AnalyticsData 处理 GET /admin/analytics-data?period=weekly|monthly|yearly|all。
func (h *AdminHandler) AnalyticsData(c *gin.Context) {
	report, err := h.analyticsService.Report(c.Request.Context(), c.DefaultQuery("period", "weekly"))
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": report})
}

// Unresolved 处理 GET /admin/unresolved?q=&size=。
func (h *AdminHandler) Unresolved(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, err := h.analyticsService.SearchUnresolved(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": items})
}

func (h *AdminHandler) analyticsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
	case errors.Is(err, service.ErrAnalyticsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": nil})
	default:
		log.Error("analytics query failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询失败", "data": nil})
	}
}
