// Package pipeline 实现文档摄取流水线: 下载原始文件, 提取文本, 切分,
// 向量化并写入向量库, 最后落库并标记文档为已处理。
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"doc-chat-go/internal/chunker"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/qdrant"
	"doc-chat-go/pkg/tasks"

	"github.com/google/uuid"
)

// TextExtractor 从原始文件流中提取纯文本。
type TextExtractor interface {
	ExtractText(fileReader io.Reader) (string, error)
}

// ObjectStore 提供对原始文件对象的读取。
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)
}

// VectorIndex 定义摄取流水线对向量库的写操作。
type VectorIndex interface {
	UpsertPoints(ctx context.Context, points []qdrant.Point) error
	DeletePoints(ctx context.Context, ids []string) error
}

// Processor 消费文档处理任务, 执行完整的摄取流水线。
type Processor struct {
	docRepo   repository.DocumentRepository
	chunkRepo repository.ChunkRepository
	store     ObjectStore
	bucket    string
	extractor TextExtractor
	chunker   *chunker.Chunker
	embedder  embedding.Client
	index     VectorIndex
}

// NewProcessor 创建一个摄取流水线处理器。
func NewProcessor(
	docRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	store ObjectStore,
	bucket string,
	extractor TextExtractor,
	ck *chunker.Chunker,
	embedder embedding.Client,
	index VectorIndex,
) *Processor {
	return &Processor{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		store:     store,
		bucket:    bucket,
		extractor: extractor,
		chunker:   ck,
		embedder:  embedder,
		index:     index,
	}
}

// Process 处理一条文档摄取任务。任何一步失败都返回错误,
// 文档保持未处理状态, 等待消费端按策略重试。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentProcessingTask) error {
	log.Infof("开始处理文档摄取任务, DocumentID: %d", task.DocumentID)

	// 1. 加载文档元数据
	doc, err := p.docRepo.FindByID(task.DocumentID)
	if err != nil {
		return fmt.Errorf("查询文档 %d 失败: %w", task.DocumentID, err)
	}

	// 2. 从对象存储下载原始文件
	object, err := p.store.GetObject(ctx, p.bucket, doc.ObjectKey)
	if err != nil {
		return fmt.Errorf("下载文件 %s 失败: %w", doc.ObjectKey, err)
	}
	defer object.Close()
	log.Infof("步骤 1/5: 文件 %s 下载成功", doc.ObjectKey)

	// 3. 提取文本
	text, err := p.extractor.ExtractText(object)
	if err != nil {
		return fmt.Errorf("提取文档 %d 文本失败: %w", doc.ID, err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("文档 %d 未提取到任何文本", doc.ID)
	}
	log.Infof("步骤 2/5: 文本提取成功, 长度 %d", len(text))

	// 4. 切分文本
	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return fmt.Errorf("文档 %d 切分后没有产生任何文本块", doc.ID)
	}
	log.Infof("步骤 3/5: 文本切分完成, 共 %d 块", len(chunks))

	// 5. 批量向量化
	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return fmt.Errorf("向量化文档 %d 失败: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("向量数量 %d 与文本块数量 %d 不一致", len(vectors), len(chunks))
	}
	log.Infof("步骤 4/5: 向量化完成, 共 %d 条向量", len(vectors))

	// 6. 组装向量点和块记录
	points := make([]qdrant.Point, 0, len(chunks))
	rows := make([]model.DocumentChunk, 0, len(chunks))
	for i, content := range chunks {
		vectorID := uuid.NewString()
		points = append(points, qdrant.Point{
			ID:     vectorID,
			Vector: vectors[i],
			Payload: qdrant.Payload{
				DocumentID:  doc.ID,
				ChunkNumber: i,
				Content:     content,
			},
		})
		id := vectorID
		rows = append(rows, model.DocumentChunk{
			DocumentID:  doc.ID,
			ChunkNumber: i,
			Content:     content,
			VectorID:    &id,
		})
	}

	// 7. 清理上一次摄取遗留的块和向量, 保证重试幂等
	if err := p.purgePrevious(ctx, doc.ID); err != nil {
		return err
	}

	// 8. 写入向量库和数据库
	if err := p.index.UpsertPoints(ctx, points); err != nil {
		return fmt.Errorf("写入向量库失败: %w", err)
	}
	if err := p.chunkRepo.BatchCreate(rows); err != nil {
		return fmt.Errorf("写入文档块失败: %w", err)
	}

	// 9. 标记文档为已处理
	if err := p.docRepo.MarkProcessed(doc.ID); err != nil {
		return fmt.Errorf("标记文档 %d 已处理失败: %w", doc.ID, err)
	}
	log.Infof("步骤 5/5: 文档 %d 摄取完成, 共 %d 块", doc.ID, len(chunks))
	return nil
}

// purgePrevious 删除文档此前摄取产生的块记录和向量点。
func (p *Processor) purgePrevious(ctx context.Context, documentID uint) error {
	staleIDs, err := p.chunkRepo.FindVectorIDsByDocument(documentID)
	if err != nil {
		return fmt.Errorf("查询文档 %d 旧向量 ID 失败: %w", documentID, err)
	}
	if len(staleIDs) > 0 {
		if err := p.index.DeletePoints(ctx, staleIDs); err != nil {
			return fmt.Errorf("删除文档 %d 旧向量失败: %w", documentID, err)
		}
	}
	if err := p.chunkRepo.DeleteByDocument(documentID); err != nil {
		return fmt.Errorf("删除文档 %d 旧块记录失败: %w", documentID, err)
	}
	return nil
}
