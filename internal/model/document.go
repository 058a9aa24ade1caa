// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Document 对应于数据库中的 'documents' 表。
// Processed 只会在摄取管道成功完成后被置为 true；
// 删除文档会级联清理它的分块和会话。
type Document struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	ObjectKey  string    `gorm:"type:varchar(255);not null" json:"-"`
	FileSize   int64     `gorm:"not null" json:"fileSize"`
	UserID     uint      `gorm:"index;not null" json:"userId"`
	Processed  bool      `gorm:"not null;default:false" json:"processed"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
