package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/pipeline"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/kafka"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/storage"

	"github.com/google/uuid"
)

var (
	// ErrNotPDF 表示上传的文件不是 PDF。
	ErrNotPDF = errors.New("仅支持上传 PDF 文件")
	// ErrDocumentNotFound 表示文档不存在或不属于当前用户。
	ErrDocumentNotFound = errors.New("文档不存在")
)

// VectorDeleter 定义文档删除时对向量库的清理操作。
type VectorDeleter interface {
	DeletePoints(ctx context.Context, ids []string) error
}

// DocumentService 定义文档相关的业务操作。
type DocumentService interface {
	// Upload 保存原始文件, 创建文档与默认会话, 并投递异步摄取任务。
	Upload(ctx context.Context, userID uint, filename string, fileSize int64, file io.Reader) (*model.Document, *model.Conversation, error)
	List(userID uint) ([]model.Document, error)
	Get(documentID, userID uint) (*model.Document, error)
	// StreamFile 返回原始文件流, 调用方负责关闭。
	StreamFile(ctx context.Context, documentID, userID uint) (io.ReadCloser, *model.Document, error)
	// Delete 级联删除文档及其派生数据: 消息, 会话, 块, 向量, 原始文件。
	Delete(ctx context.Context, documentID, userID uint) error
}

type documentService struct {
	docRepo   repository.DocumentRepository
	chunkRepo repository.ChunkRepository
	convRepo  repository.ConversationRepository
	msgRepo   repository.MessageRepository
	store     pipeline.ObjectStore
	bucket    string
	index     VectorDeleter
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	store pipeline.ObjectStore,
	bucket string,
	index VectorDeleter,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		store:     store,
		bucket:    bucket,
		index:     index,
	}
}

// Upload 处理文档上传。文件先写入对象存储, 元数据落库后投递摄取任务,
// 同时为文档创建一个默认会话, 上传完成即可进入对话页面。
func (s *documentService) Upload(ctx context.Context, userID uint, filename string, fileSize int64, file io.Reader) (*model.Document, *model.Conversation, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, nil, ErrNotPDF
	}

	objectKey := fmt.Sprintf("%d/%s/%s", userID, uuid.NewString(), filename)
	if err := storage.PutObject(ctx, s.bucket, objectKey, file, fileSize, "application/pdf"); err != nil {
		return nil, nil, fmt.Errorf("上传文件到对象存储失败: %w", err)
	}

	doc := &model.Document{
		Title:     filename,
		ObjectKey: objectKey,
		FileSize:  fileSize,
		UserID:    userID,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, nil, err
	}

	conv := &model.Conversation{DocumentID: doc.ID, UserID: userID}
	if err := s.convRepo.Create(conv); err != nil {
		return nil, nil, err
	}

	if err := kafka.EnqueueIngestion(doc.ID); err != nil {
		return nil, nil, fmt.Errorf("投递摄取任务失败: %w", err)
	}
	log.Infof("文档上传成功, DocumentID: %d, ObjectKey: %s", doc.ID, objectKey)
	return doc, conv, nil
}

// List 列出当前用户的全部文档。
func (s *documentService) List(userID uint) ([]model.Document, error) {
	return s.docRepo.FindByUser(userID)
}

// Get 查询当前用户的单个文档。
func (s *documentService) Get(documentID, userID uint) (*model.Document, error) {
	doc, err := s.docRepo.FindByIDAndUser(documentID, userID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// StreamFile 返回原始文件流。
func (s *documentService) StreamFile(ctx context.Context, documentID, userID uint) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(documentID, userID)
	if err != nil {
		return nil, nil, err
	}
	object, err := s.store.GetObject(ctx, s.bucket, doc.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return object, doc, nil
}

// Delete 级联删除文档。向量库和对象存储的清理失败只记日志,
// 关系库中的记录一旦删除, 孤儿向量会被检索阶段过滤掉。
func (s *documentService) Delete(ctx context.Context, documentID, userID uint) error {
	doc, err := s.Get(documentID, userID)
	if err != nil {
		return err
	}

	convs, err := s.convRepo.FindByDocument(doc.ID)
	if err != nil {
		return err
	}
	for _, conv := range convs {
		if err := s.msgRepo.DeleteByConversation(conv.ID); err != nil {
			return err
		}
	}
	if err := s.convRepo.DeleteByDocument(doc.ID); err != nil {
		return err
	}

	vectorIDs, err := s.chunkRepo.FindVectorIDsByDocument(doc.ID)
	if err != nil {
		return err
	}
	if err := s.chunkRepo.DeleteByDocument(doc.ID); err != nil {
		return err
	}
	if len(vectorIDs) > 0 {
		if err := s.index.DeletePoints(ctx, vectorIDs); err != nil {
			log.Errorf("删除文档 %d 的向量失败: %v", doc.ID, err)
		}
	}

	if err := s.docRepo.Delete(doc.ID); err != nil {
		return err
	}

	if doc.ObjectKey != "" {
		if err := storage.RemoveObject(ctx, s.bucket, doc.ObjectKey); err != nil {
			log.Errorf("删除文档 %d 的原始文件失败: %v", doc.ID, err)
		}
	}
	log.Infof("文档删除成功, DocumentID: %d", doc.ID)
	return nil
}
