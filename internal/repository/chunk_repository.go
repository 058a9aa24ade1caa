package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// ChunkRepository 接口定义了文档块数据的持久化操作。
type ChunkRepository interface {
	BatchCreate(chunks []model.DocumentChunk) error
	FindByDocument(documentID uint) ([]model.DocumentChunk, error)
	FindVectorIDsByDocument(documentID uint) ([]string, error)
	DeleteByDocument(documentID uint) error
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// BatchCreate 分批写入文档块记录。
func (r *chunkRepository) BatchCreate(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error
}

// FindByDocument 查询某个文档的全部块, 按块序号升序排列。
func (r *chunkRepository) FindByDocument(documentID uint) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	err := r.db.Where("document_id = ?", documentID).
		Order("chunk_number ASC").Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// FindVectorIDsByDocument 查询某个文档所有块的向量 ID, 用于校验检索结果的有效性。
func (r *chunkRepository) FindVectorIDsByDocument(documentID uint) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.DocumentChunk{}).
		Where("document_id = ? AND vector_id IS NOT NULL", documentID).
		Pluck("vector_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByDocument 删除某个文档的全部块记录。
func (r *chunkRepository) DeleteByDocument(documentID uint) error {
	return r.db.Where("document_id = ?", documentID).
		Delete(&model.DocumentChunk{}).Error
}
