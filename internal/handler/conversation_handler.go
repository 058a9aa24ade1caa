package handler

import (
	"net/http"

	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责处理会话相关的 API 请求。
type ConversationHandler struct {
	convService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(convService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// List 返回当前用户的会话列表, 按最近活跃时间倒序排列。
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}

	convs, err := h.convService.List(user.ID)
	if err != nil {
		log.Errorf("List: 查询会话列表失败, 用户 %d, 错误: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    convs,
	})
}

// Get 返回会话详情及其完整历史消息。
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.convService.Get(conversationID, user.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    detail,
	})
}
