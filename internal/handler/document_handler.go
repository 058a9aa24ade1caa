package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxUploadSize 限制单个上传文件的大小为 50MB。
const maxUploadSize = 50 << 20

// DocumentHandler 负责处理文档相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload 处理文档上传请求。接收 multipart/form-data 的 file 字段,
// 保存原始文件并投递异步摄取任务, 返回新建的文档和默认会话。
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "请求中缺少 file 字段",
		})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"code":    http.StatusRequestEntityTooLarge,
			"message": "文件大小超过限制",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "读取上传文件失败",
		})
		return
	}
	defer file.Close()

	doc, conv, err := h.docService.Upload(c.Request.Context(), user.ID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		if errors.Is(err, service.ErrNotPDF) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Upload: 上传文档失败, 用户 %d, 错误: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "上传失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "上传成功, 文档正在后台处理",
		"data": gin.H{
			"document":     doc,
			"conversation": conv,
		},
	})
}

// List 返回当前用户的文档列表。
func (h *DocumentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}

	docs, err := h.docService.List(user.ID)
	if err != nil {
		log.Errorf("List: 查询文档列表失败, 用户 %d, 错误: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    docs,
	})
}

// Get 返回单个文档的元数据, 前端轮询 processed 字段判断摄取是否完成。
func (h *DocumentHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	documentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.docService.Get(documentID, user.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "文档不存在",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    doc,
	})
}

// File 以流方式返回原始 PDF 文件。
func (h *DocumentHandler) File(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	documentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	object, doc, err := h.docService.StreamFile(c.Request.Context(), documentID, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "文档不存在",
			})
			return
		}
		log.Errorf("File: 读取文档 %d 文件失败, 错误: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "读取文件失败",
		})
		return
	}
	defer object.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+doc.Title+`"`)
	if _, err := io.Copy(c.Writer, object); err != nil {
		log.Warnf("File: 传输文档 %d 文件中断: %v", documentID, err)
	}
}

// Delete 级联删除文档及其全部派生数据。
func (h *DocumentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录"})
		return
	}
	documentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), documentID, user.ID); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "文档不存在",
			})
			return
		}
		log.Errorf("Delete: 删除文档 %d 失败, 错误: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "删除成功",
	})
}

// pathID 解析路径中的数字 ID 参数, 解析失败时直接写入 400 响应。
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 " + name + " 参数",
		})
		return 0, false
	}
	return uint(id), true
}
