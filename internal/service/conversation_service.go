package service

import (
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
)

// ConversationDetail 是会话详情, 包含按时间升序排列的完整消息列表。
type ConversationDetail struct {
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
}

// ConversationService 定义会话相关的查询操作。
type ConversationService interface {
	List(userID uint) ([]model.Conversation, error)
	Get(conversationID, userID uint) (*ConversationDetail, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) ConversationService {
	return &conversationService{convRepo: convRepo, msgRepo: msgRepo}
}

// List 列出当前用户的全部会话, 按最近活跃时间倒序排列。
func (s *conversationService) List(userID uint) ([]model.Conversation, error) {
	return s.convRepo.FindByUser(userID)
}

// Get 查询会话详情及其全部历史消息。
func (s *conversationService) Get(conversationID, userID uint) (*ConversationDetail, error) {
	conv, err := s.convRepo.FindByIDAndUser(conversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	msgs, err := s.msgRepo.FindByConversation(conv.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: *conv, Messages: msgs}, nil
}
