// Package chunker 实现递归文本切分器, 将长文本按分隔符层级切分为
// 带重叠的固定大小文本块, 供向量化和检索使用。
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize 是单个文本块的默认最大长度(按字符计)。
	DefaultChunkSize = 1000
	// DefaultChunkOverlap 是相邻文本块之间的默认重叠长度。
	DefaultChunkOverlap = 200
)

// defaultSeparators 是递归切分时依次尝试的分隔符, 优先保持段落和句子的完整性。
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker 将文本递归切分为大小受限且带重叠的块。
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker 创建一个切分器。chunkSize 或 chunkOverlap 非法时回退到默认值。
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split 将 text 切分为文本块。空白输入返回 nil。
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.splitRecursive(text, c.separators)
	chunks := c.merge(pieces)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

// splitRecursive 用 separators 中第一个出现在文本里的分隔符切分文本,
// 对仍然超长的片段换用下一级分隔符继续切分。
func (c *Chunker) splitRecursive(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}

	sep := ""
	rest := separators
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.hardSplit(text)
	}

	var pieces []string
	for _, part := range strings.Split(text, sep) {
		if utf8.RuneCountInString(part) > c.chunkSize {
			pieces = append(pieces, c.splitRecursive(part, rest)...)
		} else if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// hardSplit 按固定步长切分没有任何分隔符可用的文本, 步长扣除重叠长度。
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = c.chunkSize
	}
	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

// merge 将切分出的片段贪心合并为不超过 chunkSize 的块,
// 并在相邻块之间保留约 chunkOverlap 长度的尾部重叠。
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if total > 0 && total+1+pieceLen > c.chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			// 弹出头部片段直到剩余长度落入重叠窗口内
			for total > c.chunkOverlap || (total+1+pieceLen > c.chunkSize && total > 0) {
				head := utf8.RuneCountInString(current[0])
				total -= head
				if len(current) > 1 {
					total--
				}
				current = current[1:]
				if len(current) == 0 {
					total = 0
					break
				}
			}
		}
		current = append(current, piece)
		if total > 0 {
			total++
		}
		total += pieceLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
