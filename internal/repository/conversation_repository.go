package repository

import (
	"doc-chat-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 接口定义了会话数据的持久化操作。
type ConversationRepository interface {
	Create(conv *model.Conversation) error
	FindByID(conversationID uint) (*model.Conversation, error)
	FindByIDAndUser(conversationID, userID uint) (*model.Conversation, error)
	FindByUser(userID uint) ([]model.Conversation, error)
	FindByDocument(documentID uint) ([]model.Conversation, error)
	Touch(conversationID uint) error
	DeleteByDocument(documentID uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create 在数据库中创建一条会话记录。
func (r *conversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID 根据会话 ID 查找会话。
func (r *conversationRepository) FindByID(conversationID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.First(&conv, conversationID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByIDAndUser 根据会话 ID 和所有者 ID 查找会话, 用于所有权校验。
func (r *conversationRepository) FindByIDAndUser(conversationID, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByUser 查询某个用户的全部会话, 按最近活跃时间倒序排列。
func (r *conversationRepository) FindByUser(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// FindByDocument 查询与某个文档关联的全部会话。
func (r *conversationRepository) FindByDocument(documentID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("document_id = ?", documentID).Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// Touch 刷新会话的活跃时间, 使其在列表中排到最前。
func (r *conversationRepository) Touch(conversationID uint) error {
	return r.db.Model(&model.Conversation{}).Where("id = ?", conversationID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// DeleteByDocument 删除与某个文档关联的全部会话。
func (r *conversationRepository) DeleteByDocument(documentID uint) error {
	return r.db.Where("document_id = ?", documentID).
		Delete(&model.Conversation{}).Error
}
