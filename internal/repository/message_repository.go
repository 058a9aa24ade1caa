package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 接口定义了会话消息的持久化操作。
type MessageRepository interface {
	Create(msg *model.Message) error
	FindByConversation(conversationID uint) ([]model.Message, error)
	FindRecentByConversation(conversationID uint, limit int) ([]model.Message, error)
	DeleteByConversation(conversationID uint) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 在数据库中创建一条消息记录。
func (r *messageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByConversation 查询某个会话的全部消息, 按时间升序排列。
func (r *messageRepository) FindByConversation(conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// FindRecentByConversation 查询某个会话最近的 limit 条消息, 按时间倒序返回。
func (r *messageRepository) FindRecentByConversation(conversationID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteByConversation 删除某个会话的全部消息。
func (r *messageRepository) DeleteByConversation(conversationID uint) error {
	return r.db.Where("conversation_id = ?", conversationID).
		Delete(&model.Message{}).Error
}
