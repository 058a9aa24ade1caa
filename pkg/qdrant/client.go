// Package qdrant 提供了与向量索引服务（Qdrant）交互的 REST 客户端。
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"doc-chat-go/pkg/log"
)

// Config 描述 Qdrant 服务地址与目标集合。
type Config struct {
	URL        string
	APIKey     string
	Collection string
}

// Payload 是随向量一起写入的元数据。
// document_id 用于检索时的服务端过滤，chunk_number 与分块表中的
// 序号一致，使命中结果能回溯到关系库中的分块行。
type Payload struct {
	DocumentID  uint   `json:"document_id"`
	ChunkNumber int    `json:"chunk_number"`
	Content     string `json:"content"`
}

// Point 是一条向量索引记录。
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// ScoredPoint 是一次相似度搜索的单条命中，score 为 cosine 相似度，越大越相关。
type ScoredPoint struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// Client 是 Qdrant 的最小 REST 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建一个新的 Qdrant 客户端实例。
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// EnsureCollection 创建集合（幂等，若已存在同构集合则 Qdrant 返回 200）。
// dimension 必须与 Embedding 模型的输出维度一致。
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", c.cfg.URL, c.cfg.Collection), body, nil); err != nil {
		return fmt.Errorf("创建 Qdrant 集合失败: %w", err)
	}
	log.Infof("[Qdrant] 集合 '%s' 就绪, 维度: %d", c.cfg.Collection, dimension)
	return nil
}

// UpsertPoints 批量写入向量点，wait=true 保证写入对后续搜索立即可见。
func (c *Client) UpsertPoints(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]interface{}{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.cfg.URL, c.cfg.Collection)
	if err := c.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("写入 Qdrant 向量失败: %w", err)
	}
	return nil
}

// Search 执行相似度搜索，结果由服务端按 document_id 过滤并按相似度降序返回。
func (c *Client) Search(ctx context.Context, vector []float32, documentID uint, limit int) ([]ScoredPoint, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   "document_id",
					"match": map[string]interface{}{"value": documentID},
				},
			},
		},
	}
	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.cfg.URL, c.cfg.Collection)
	if err := c.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, fmt.Errorf("Qdrant 搜索失败: %w", err)
	}
	return resp.Result, nil
}

// DeletePoints 按 id 删除向量点。调用方将删除失败视为非致命错误，
// 孤儿向量会被检索阶段的归属校验过滤掉。
func (c *Client) DeletePoints(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]interface{}{"points": ids}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.cfg.URL, c.cfg.Collection)
	if err := c.doJSON(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("删除 Qdrant 向量失败: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
