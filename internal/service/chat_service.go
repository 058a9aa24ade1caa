package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/llm"
	"doc-chat-go/pkg/log"
)

const (
	// retrievalTopK 是每轮对话检索的上下文块数量。
	retrievalTopK = 3
	// historyWindow 是注入提示词的最近历史消息条数。
	historyWindow = 5
	// maxQuestionLen 是单条用户问题的最大字符数。
	maxQuestionLen = 2000

	systemPrompt = "You are a helpful assistant. Answer the user's question based on the " +
		"provided document context. If the answer is not in the context, say you are not sure."
)

var (
	// ErrConversationNotFound 表示会话不存在或不属于当前用户。
	ErrConversationNotFound = errors.New("会话不存在")
	// ErrDocumentNotReady 表示关联文档尚未完成摄取。
	ErrDocumentNotReady = errors.New("文档尚未处理完成")
	// ErrEmptyQuestion 表示用户问题为空。
	ErrEmptyQuestion = errors.New("问题不能为空")
	// ErrQuestionTooLong 表示用户问题超过长度限制。
	ErrQuestionTooLong = errors.New("问题长度不能超过 2000 字符")
)

// ChatService 实现基于文档检索的多轮对话。
type ChatService interface {
	// Answer 阻塞式回答: 检索上下文, 调用模型, 持久化问答并返回完整回答。
	Answer(ctx context.Context, userID, conversationID uint, question string) (string, error)
	// StreamAnswer 流式回答: 回答片段按序回调 emit, 全部成功后才持久化助手消息。
	StreamAnswer(ctx context.Context, userID, conversationID uint, question string, emit func(delta string) error) error
}

type chatService struct {
	convRepo  repository.ConversationRepository
	msgRepo   repository.MessageRepository
	docRepo   repository.DocumentRepository
	retriever RetrievalService
	llmClient llm.Client
	gen       *llm.GenerationParams
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	docRepo repository.DocumentRepository,
	retriever RetrievalService,
	llmClient llm.Client,
	gen *llm.GenerationParams,
) ChatService {
	return &chatService{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		docRepo:   docRepo,
		retriever: retriever,
		llmClient: llmClient,
		gen:       gen,
	}
}

// Answer 实现阻塞式对话。
func (s *chatService) Answer(ctx context.Context, userID, conversationID uint, question string) (string, error) {
	messages, conv, err := s.prepare(ctx, userID, conversationID, question)
	if err != nil {
		return "", err
	}

	answer, err := s.llmClient.ChatCompletion(ctx, messages, s.gen)
	if err != nil {
		log.Errorf("会话 %d 调用 LLM 失败: %v", conversationID, err)
		return "", err
	}

	s.persistAssistant(conv, answer)
	return answer, nil
}

// StreamAnswer 实现流式对话。流中途失败时不持久化任何助手消息,
// 已持久化的用户消息保留, 客户端重试即可。
func (s *chatService) StreamAnswer(ctx context.Context, userID, conversationID uint, question string, emit func(delta string) error) error {
	messages, conv, err := s.prepare(ctx, userID, conversationID, question)
	if err != nil {
		return err
	}

	var full strings.Builder
	err = s.llmClient.StreamChatCompletion(ctx, messages, s.gen, func(delta string) error {
		full.WriteString(delta)
		return emit(delta)
	})
	if err != nil {
		log.Errorf("会话 %d 流式调用 LLM 失败: %v", conversationID, err)
		return err
	}

	s.persistAssistant(conv, full.String())
	return nil
}

// prepare 完成一轮对话的公共前置工作: 校验会话归属, 持久化用户消息,
// 检索上下文, 组装带历史窗口的提示词消息序列。
func (s *chatService) prepare(ctx context.Context, userID, conversationID uint, question string) ([]llm.Message, *model.Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, nil, ErrQuestionTooLong
	}

	conv, err := s.convRepo.FindByIDAndUser(conversationID, userID)
	if err != nil {
		return nil, nil, ErrConversationNotFound
	}
	doc, err := s.docRepo.FindByID(conv.DocumentID)
	if err != nil {
		return nil, nil, ErrConversationNotFound
	}
	if !doc.Processed {
		return nil, nil, ErrDocumentNotReady
	}

	// 先落库用户消息, 无论本轮生成是否成功都保留提问记录
	userMsg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        question,
	}
	if err := s.msgRepo.Create(userMsg); err != nil {
		return nil, nil, err
	}
	// 提问即视为会话活跃, 无论本轮生成成败都刷新排序时间
	if err := s.convRepo.Touch(conv.ID); err != nil {
		log.Errorf("会话 %d 刷新活跃时间失败: %v", conv.ID, err)
	}

	hits, err := s.retriever.Search(ctx, conv.DocumentID, question, retrievalTopK)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.msgRepo.FindRecentByConversation(conv.ID, historyWindow)
	if err != nil {
		return nil, nil, err
	}

	messages := buildPrompt(hits, history)
	log.Infof("会话 %d 提示词组装完成: %d 条上下文块, %d 条历史消息",
		conv.ID, len(hits), len(history))
	return messages, conv, nil
}

// buildPrompt 组装发给模型的消息序列: 固定系统提示 + 独立的上下文系统消息 + 最近历史。
// 检索无命中时上下文消息仍然发送, 只是块列表为空。
// history 按时间倒序传入, 这里反转为时间升序。
func buildPrompt(hits []model.ChunkHit, history []model.Message) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Context from the document:\n")
	for i, hit := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(hit.Content)
	}

	messages := []llm.Message{
		{Role: model.RoleSystem, Content: systemPrompt},
		{Role: model.RoleSystem, Content: sb.String()},
	}
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}

// persistAssistant 落库助手回答。失败只记日志,
// 回答已经送达客户端, 不应再向调用方报错。
func (s *chatService) persistAssistant(conv *model.Conversation, answer string) {
	msg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        answer,
	}
	if err := s.msgRepo.Create(msg); err != nil {
		log.Errorf("会话 %d 持久化助手消息失败: %v", conv.ID, err)
	}
}
