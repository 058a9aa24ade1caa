package handler

import (
	"errors"
	"fmt"
	"net/http"

	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责处理对话相关的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了对话 API 的请求体结构。
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// Chat 处理阻塞式对话请求, 等待模型生成完整回答后一次性返回。
func (h *ChatHandler) Chat(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：message 不能为空且不超过 2000 字符",
		})
		return
	}

	answer, err := h.chatService.Answer(c.Request.Context(), user.ID, conversationID, req.Message)
	if err != nil {
		h.writeChatError(c, conversationID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"answer": answer},
	})
}

// ChatStream 处理流式对话请求, 以 SSE 格式逐片段推送回答。
// 每个片段为一条 `data:` 事件, 失败时推送 `event: error`, 正常结束推送 `data: [DONE]`。
func (h *ChatHandler) ChatStream(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：message 不能为空且不超过 2000 字符",
		})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "流式响应不可用",
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	err := h.chatService.StreamAnswer(ctx, user.ID, conversationID, req.Message, func(delta string) error {
		// 客户端断开时中止上游流
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", delta)
		flusher.Flush()
		return nil
	})
	if err != nil {
		log.Errorf("ChatStream: 会话 %d 流式回答失败: %v", conversationID, err)
		fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", err.Error())
		flusher.Flush()
		return
	}

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

// writeChatError 把会话业务错误映射为 HTTP 状态码。
func (h *ChatHandler) writeChatError(c *gin.Context, conversationID uint, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrDocumentNotReady):
		c.JSON(http.StatusConflict, gin.H{
			"code":    http.StatusConflict,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrEmptyQuestion), errors.Is(err, service.ErrQuestionTooLong):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
	default:
		log.Errorf("Chat: 会话 %d 生成回答失败: %v", conversationID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    http.StatusServiceUnavailable,
			"message": "生成回答失败, 请稍后重试",
		})
	}
}
