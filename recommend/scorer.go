// Package recommend 实现行为加权打分、冷启动与混合推荐。
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/mallrec/core"
)

// Scorer 是行为加权打分器：给定相似度矩阵与用户行为画像，对未交互商品排名。
// 协同路径与内容路径共用同一打分函数，只是传入的矩阵不同。
//
// 算法流程：
//  1. 候选 = 所有在架商品中用户未交互过的商品（已交互商品不再推荐）
//  2. 对候选的相似度行里出现的每个已交互商品，计算行为权重
//     （见 core.ProductBehavior.Weight：购买/收藏/评价三类信号叠加）
//  3. 累加 score[候选] += 相似度 * 行为权重
//  4. 只保留 score > 0 的候选；按分数降序（稳定排序）；截断 topK
//
// 无状态、只读，可与其它打分调用安全并发。
type Scorer struct {
	Source core.DataSource

	// Now 用于收藏时间衰减的基准时间，默认 time.Now（测试可注入）
	Now func() time.Time
}

func NewScorer(source core.DataSource) *Scorer {
	return &Scorer{Source: source}
}

// Score 对 profile 用户按 matrix 打分，返回至多 topK 条推荐。
// 空商品库返回空结果。
func (s *Scorer) Score(
	ctx context.Context,
	profile *core.BehaviorProfile,
	matrix *core.SimilarityMatrix,
	topK int,
) ([]core.RecommendItem, error) {
	if profile == nil || matrix == nil || topK <= 0 {
		return nil, nil
	}

	products, err := s.Source.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	// 行为权重只算一次，P² 循环里复用
	weights := make(map[string]float64, len(profile.Behaviors))
	for pid, b := range profile.Behaviors {
		weights[pid] = b.Weight(now)
	}

	items := make([]core.RecommendItem, 0, len(products))
	for _, candidate := range products {
		if candidate == nil || candidate.ID == "" {
			continue
		}
		if profile.Has(candidate.ID) {
			continue
		}
		row := matrix.Row(candidate.ID)
		if len(row) == 0 {
			continue
		}

		var score float64
		for pid, weight := range weights {
			if sim, ok := row[pid]; ok {
				score += sim * weight
			}
		}
		if score > 0 {
			items = append(items, core.RecommendItem{ProductID: candidate.ID, Score: score})
		}
	}

	return topN(items, topK), nil
}

// topN 按分数降序稳定排序（同分保持遍历序）并截断前 topK 条。
func topN(items []core.RecommendItem, topK int) []core.RecommendItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if topK > 0 && len(items) > topK {
		items = items[:topK]
	}
	return items
}
