package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/utils"
)

// Hybrid 是混合推荐合并器：把协同路径与内容路径的排名按固定权重融合。
//
// 合并规则：按 productID 合并，final = CFWeight*cf + CBWeight*cb，
// 缺失一侧按 0 计；降序排序后截断 topK，再把幸存的 ID 解析为完整商品
// （未知/已删除的 ID 静默丢弃）。
type Hybrid struct {
	Source core.DataSource

	// 融合权重，默认 0.7 / 0.3
	CFWeight float64
	CBWeight float64
}

func NewHybrid(source core.DataSource) *Hybrid {
	return &Hybrid{
		Source:   source,
		CFWeight: 0.7,
		CBWeight: 0.3,
	}
}

// Combine 融合两路结果并解析为完整商品。
// cf / cb 建议各传 2*topK 条，保证融合后仍有足够候选。
func (h *Hybrid) Combine(
	ctx context.Context,
	cf, cb []core.RecommendItem,
	topK int,
) ([]core.ProductRecommendation, error) {
	if topK <= 0 {
		return nil, nil
	}

	type blended struct {
		score  float64
		fromCF bool
		fromCB bool
	}
	merged := make(map[string]*blended, len(cf)+len(cb))
	order := make([]string, 0, len(cf)+len(cb)) // 保持首次出现顺序，排序稳定可复现

	for _, it := range cf {
		b, ok := merged[it.ProductID]
		if !ok {
			b = &blended{}
			merged[it.ProductID] = b
			order = append(order, it.ProductID)
		}
		b.score += h.CFWeight * it.Score
		b.fromCF = true
	}
	for _, it := range cb {
		b, ok := merged[it.ProductID]
		if !ok {
			b = &blended{}
			merged[it.ProductID] = b
			order = append(order, it.ProductID)
		}
		b.score += h.CBWeight * it.Score
		b.fromCB = true
	}

	sort.SliceStable(order, func(i, j int) bool {
		return merged[order[i]].score > merged[order[j]].score
	})
	if len(order) > topK {
		order = order[:topK]
	}

	products, err := h.Source.GetProducts(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	out := make([]core.ProductRecommendation, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		b := merged[p.ID]
		rec := core.ProductRecommendation{Product: *p, Score: b.score}
		if b.fromCF {
			rec.PutLabel("rec_source", utils.Label{Value: "cf", Source: "hybrid"})
		}
		if b.fromCB {
			rec.PutLabel("rec_source", utils.Label{Value: "cb", Source: "hybrid"})
		}
		out = append(out, rec)
	}
	return out, nil
}
