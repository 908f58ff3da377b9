package core

import (
	"time"

	"github.com/rushteam/mallrec/pkg/utils"
)

// Product 是参与推荐的商品快照（来自数据源，只读）。
// 相似度计算只依赖这里的字段：名称/描述用于文本相似度，
// CategoryIDs 用于类目相似度，Price 用于价格相似度。
type Product struct {
	ID          string
	Name        string
	Description string
	CategoryIDs []string
	Price       float64
}

// User 是冷启动打标所需的最小用户属性集合。
type User struct {
	ID     string
	Gender string // male / female / unknown
	Email  string
}

// PurchaseRecord 是一条购买明细（订单行级别，同一商品可多次出现）。
type PurchaseRecord struct {
	ProductID string
	UserID    string
	Quantity  int
}

// FavoriteRecord 是一条收藏记录。
type FavoriteRecord struct {
	ProductID string
	UserID    string
	CreatedAt time.Time
}

// EvaluationRecord 是一条评价记录，Score 取值 0-10。
type EvaluationRecord struct {
	ProductID string
	UserID    string
	Score     int
}

// RecommendItem 是打分后的推荐候选：ID + 分数，顺序即排名。
// 请求级临时对象，不落库。
type RecommendItem struct {
	ProductID string
	Score     float64
}

// ProductRecommendation 是混合推荐的最终输出：完整商品 + 融合分数。
// Labels 记录来源信息（cf / cb），用于 explain / 观测。
type ProductRecommendation struct {
	Product Product
	Score   float64
	Labels  map[string]utils.Label
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (r *ProductRecommendation) PutLabel(key string, lbl utils.Label) {
	if r.Labels == nil {
		r.Labels = make(map[string]utils.Label)
	}
	if old, ok := r.Labels[key]; ok {
		r.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	r.Labels[key] = lbl
}
