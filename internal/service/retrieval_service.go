package service

import (
	"context"
	"errors"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/qdrant"
)

// ErrInvalidTopK 表示检索请求的 topK 参数非法。
var ErrInvalidTopK = errors.New("topK 必须为正整数")

// VectorSearcher 定义检索服务对向量库的读操作。
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, documentID uint, limit int) ([]qdrant.ScoredPoint, error)
}

// RetrievalService 把用户问题向量化并在指定文档范围内做相似度检索。
type RetrievalService interface {
	Search(ctx context.Context, documentID uint, query string, topK int) ([]model.ChunkHit, error)
}

type retrievalService struct {
	embedder  embedding.Client
	searcher  VectorSearcher
	chunkRepo repository.ChunkRepository
}

// NewRetrievalService 创建一个新的 RetrievalService 实例。
func NewRetrievalService(embedder embedding.Client, searcher VectorSearcher, chunkRepo repository.ChunkRepository) RetrievalService {
	return &retrievalService{embedder: embedder, searcher: searcher, chunkRepo: chunkRepo}
}

// Search 检索与 query 最相关的 topK 个文本块。
// 命中结果会与关系库中存活的向量 ID 求交集, 过滤掉已删除文档遗留的孤儿向量,
// 同时保持向量库返回的相关度排序。
func (s *retrievalService) Search(ctx context.Context, documentID uint, query string, topK int) ([]model.ChunkHit, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	points, err := s.searcher.Search(ctx, vector, documentID, topK)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	liveIDs, err := s.chunkRepo.FindVectorIDsByDocument(documentID)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}

	hits := make([]model.ChunkHit, 0, len(points))
	for _, point := range points {
		if _, ok := live[point.ID]; !ok {
			continue
		}
		hits = append(hits, model.ChunkHit{
			Content:     point.Payload.Content,
			ChunkNumber: point.Payload.ChunkNumber,
			Score:       point.Score,
		})
	}
	return hits, nil
}
