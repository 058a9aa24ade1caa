package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档元数据的持久化操作。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(documentID uint) (*model.Document, error)
	FindByIDAndUser(documentID, userID uint) (*model.Document, error)
	FindByUser(userID uint) ([]model.Document, error)
	MarkProcessed(documentID uint) error
	Delete(documentID uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一条文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByID 根据文档 ID 查找文档。
func (r *documentRepository) FindByID(documentID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.First(&doc, documentID).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByIDAndUser 根据文档 ID 和所有者 ID 查找文档, 用于所有权校验。
func (r *documentRepository) FindByIDAndUser(documentID, userID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ? AND user_id = ?", documentID, userID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByUser 查询某个用户的全部文档, 按上传时间倒序排列。
func (r *documentRepository) FindByUser(userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("user_id = ?", userID).Order("uploaded_at DESC").Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// MarkProcessed 将文档标记为已处理, 表示摄取流水线已经完成。
func (r *documentRepository) MarkProcessed(documentID uint) error {
	return r.db.Model(&model.Document{}).Where("id = ?", documentID).
		Update("processed", true).Error
}

// Delete 删除文档记录。
func (r *documentRepository) Delete(documentID uint) error {
	return r.db.Delete(&model.Document{}, documentID).Error
}
