package core

import (
	"encoding/json"
	"time"
)

// 矩阵种类标识，也是缓存 key 的组成部分。
const (
	MatrixKindCollaborative = "collaborative" // 协同过滤矩阵（购买+收藏）
	MatrixKindContent       = "content"       // 内容矩阵（文本+类目+价格）
)

// SimilarityMatrix 是稀疏的物品相似度矩阵：productID -> productID -> [0,1]。
//
// 约定：
//   - 自相似恒为 1.0
//   - 按无序对计算一次、双向镜像写入，保证对称
//   - 低于阈值的条目不存储（稀疏表示）
//
// 生命周期：整库批量计算 -> 整体序列化后一次性写入缓存 -> 替换（不合并）。
// 发布后只读；重算在本地构建新矩阵后原子换入，读方不会看到半成品。
type SimilarityMatrix struct {
	Kind       string                        `json:"kind"`
	ComputedAt time.Time                     `json:"computed_at"`
	Scores     map[string]map[string]float64 `json:"scores"`
}

// NewSimilarityMatrix 创建一个空矩阵。
func NewSimilarityMatrix(kind string) *SimilarityMatrix {
	return &SimilarityMatrix{
		Kind:       kind,
		ComputedAt: time.Now(),
		Scores:     make(map[string]map[string]float64),
	}
}

// Set 写入单向条目。
func (m *SimilarityMatrix) Set(p1, p2 string, score float64) {
	row, ok := m.Scores[p1]
	if !ok {
		row = make(map[string]float64)
		m.Scores[p1] = row
	}
	row[p2] = score
}

// SetPair 双向写入一个无序对，保证对称性由构建过程保证而非事后校验。
func (m *SimilarityMatrix) SetPair(p1, p2 string, score float64) {
	m.Set(p1, p2, score)
	m.Set(p2, p1, score)
}

// Similarity 返回 (p1, p2) 的相似度。
// 自相似恒为 1.0；稀疏缺失的条目视为 0。
func (m *SimilarityMatrix) Similarity(p1, p2 string) float64 {
	if p1 == p2 {
		return 1.0
	}
	if row, ok := m.Scores[p1]; ok {
		return row[p2]
	}
	return 0
}

// Row 返回 p1 的相似度行（可能为 nil）。
func (m *SimilarityMatrix) Row(p1 string) map[string]float64 {
	return m.Scores[p1]
}

// Len 返回矩阵中有条目的商品数。
func (m *SimilarityMatrix) Len() int {
	return len(m.Scores)
}

// Encode 将矩阵序列化为 JSON，用于整体写入缓存。
func (m *SimilarityMatrix) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeSimilarityMatrix 从缓存字节反序列化矩阵。
func DecodeSimilarityMatrix(data []byte) (*SimilarityMatrix, error) {
	var m SimilarityMatrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Scores == nil {
		m.Scores = make(map[string]map[string]float64)
	}
	return &m, nil
}
