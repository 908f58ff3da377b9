// Package similarity 实现物品相似度的批量计算与缓存发布：
// 协同矩阵（购买+收藏）、内容矩阵（文本+类目+价格）各自独立计算、
// 独立 key 缓存，消费方按需读取完整快照。
package similarity

import (
	"context"
	"math"
	"strings"

	"github.com/rushteam/mallrec/core"
)

// Engine 是相似度引擎的统一抽象：一次 Compute 即一轮全量批量计算。
//
// 设计原则：
//   - Compute 只在本地内存构建矩阵，不触碰共享状态；
//     发布（写缓存、换快照）由 MatrixCache 统一负责
//   - 复杂度 O(P²·U)，只允许调度器/手动批量触发，禁止按请求触发
type Engine interface {
	// Kind 返回矩阵种类（core.MatrixKindCollaborative / core.MatrixKindContent）
	Kind() string

	// Compute 执行一轮全量批量计算，返回新矩阵
	Compute(ctx context.Context) (*core.SimilarityMatrix, error)
}

// cosineSimilarity 计算两个稀疏向量的余弦相似度。
// 点积只在公共维度上累加；任一向量范数为 0 时返回 0（退化输入不抛错）。
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// setJaccard 计算两个集合（以 map 的 key 为元素）的 Jaccard 相似度。
// 两个集合都为空时返回 0。
func setJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// charSetJaccard 计算两段文本的字符集 Jaccard 相似度（小写化后按 rune 取集合）。
// 边界约定：两段都为空返回 1.0，仅一段为空返回 0.0。
func charSetJaccard(s1, s2 string) float64 {
	if s1 == "" && s2 == "" {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	set1 := runeSet(strings.ToLower(s1))
	set2 := runeSet(strings.ToLower(s2))

	intersection := 0
	for r := range set1 {
		if _, ok := set2[r]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// priceSimilarity 计算价格相似度：max(0, 1 - |p1-p2| / avg)，avg 为两者均价。
// avg 为 0 时返回 0（避免除零）。
func priceSimilarity(p1, p2 float64) float64 {
	avg := (p1 + p2) / 2.0
	if avg == 0 {
		return 0
	}
	sim := 1.0 - math.Abs(p1-p2)/avg
	if sim < 0 {
		return 0
	}
	return sim
}
