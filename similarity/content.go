package similarity

import (
	"context"
	"fmt"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/logger"
)

// ContentEngine 是基于内容的相似度引擎。
//
// 对每个无序商品对：
//   - 文本相似度：名称/描述各取字符集 Jaccard（小写化），
//     按 TextNameWeight/TextDescWeight 加权（默认 0.7/0.3）；
//     双空文本视为 1.0，仅一方为空视为 0.0
//   - 类目相似度：类目 ID 集合的 Jaccard；任一集合为空则 0
//   - 价格相似度：max(0, 1 - |Δ|/均价)；均价为 0 则 0
//   - 融合：TextWeight*text + CategoryWeight*category + PriceWeight*price
//     （默认 0.6/0.3/0.1）
//
// 低于 Threshold（默认 0.1）的条目不存储（稀疏）；自相似固定 1.0。
// 每个无序对只算一次、双向镜像写入（公式对称，重复计算没有意义）。
type ContentEngine struct {
	Source core.DataSource

	// 文本相似度内部权重
	TextNameWeight float64
	TextDescWeight float64

	// 融合权重
	TextWeight     float64
	CategoryWeight float64
	PriceWeight    float64

	// Threshold 稀疏化阈值
	Threshold float64

	Log *logger.Logger
}

func NewContentEngine(source core.DataSource, log *logger.Logger) *ContentEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &ContentEngine{
		Source:         source,
		TextNameWeight: 0.7,
		TextDescWeight: 0.3,
		TextWeight:     0.6,
		CategoryWeight: 0.3,
		PriceWeight:    0.1,
		Threshold:      0.1,
		Log:            log.With("engine", core.MatrixKindContent),
	}
}

func (e *ContentEngine) Kind() string { return core.MatrixKindContent }

func (e *ContentEngine) Compute(ctx context.Context) (*core.SimilarityMatrix, error) {
	products, err := e.Source.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	matrix := core.NewSimilarityMatrix(core.MatrixKindContent)
	for i, p1 := range products {
		if p1 == nil || p1.ID == "" {
			continue
		}
		matrix.Set(p1.ID, p1.ID, 1.0)
		for _, p2 := range products[i+1:] {
			if p2 == nil || p2.ID == "" || p2.ID == p1.ID {
				continue
			}
			fused := e.pairSimilarity(p1, p2)
			if fused >= e.Threshold {
				matrix.SetPair(p1.ID, p2.ID, fused)
			}
		}
	}

	e.Log.Info("content matrix computed", "products", len(products))
	return matrix, nil
}

func (e *ContentEngine) pairSimilarity(p1, p2 *core.Product) float64 {
	nameSim := charSetJaccard(p1.Name, p2.Name)
	descSim := charSetJaccard(p1.Description, p2.Description)
	textSim := e.TextNameWeight*nameSim + e.TextDescWeight*descSim

	categorySim := categoryJaccard(p1.CategoryIDs, p2.CategoryIDs)
	priceSim := priceSimilarity(p1.Price, p2.Price)

	return e.TextWeight*textSim + e.CategoryWeight*categorySim + e.PriceWeight*priceSim
}

// categoryJaccard 计算两个类目 ID 集合的 Jaccard 相似度；任一集合为空则 0。
func categoryJaccard(c1, c2 []string) float64 {
	if len(c1) == 0 || len(c2) == 0 {
		return 0
	}
	set1 := make(map[string]struct{}, len(c1))
	for _, id := range c1 {
		set1[id] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(c2))
	for _, id := range c2 {
		set2[id] = struct{}{}
	}
	return setJaccard(set1, set2)
}

var _ Engine = (*ContentEngine)(nil)
