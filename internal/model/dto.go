package model

// ChunkHit 定义了一次相似度检索的单条命中结果。
// Score 为向量索引上报的 cosine 相似度，越大越相关。
type ChunkHit struct {
	Content     string  `json:"content"`
	ChunkNumber int     `json:"chunkNumber"`
	Score       float64 `json:"score"`
}
