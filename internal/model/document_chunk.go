package model

import "time"

// DocumentChunk 对应于数据库中的 'document_chunks' 表。
// ChunkNumber 从 0 开始，在同一文档内唯一且与分块器输出顺序一致。
// VectorID 指向向量索引中的记录；分块表是向量归属的唯一可信来源，
// 检索结果必须对照这里的 VectorID 进行过滤。
type DocumentChunk struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID  uint      `gorm:"uniqueIndex:idx_doc_chunk;not null" json:"documentId"`
	ChunkNumber int       `gorm:"uniqueIndex:idx_doc_chunk;not null" json:"chunkNumber"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	VectorID    *string   `gorm:"type:varchar(36)" json:"vectorId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentChunk) TableName() string {
	return "document_chunks"
}
