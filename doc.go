// Package mallrec 是商城的商品推荐引擎（Mall Recommender）。
//
// 设计要点：
// - 双矩阵：协同矩阵（购买+收藏）与内容矩阵（文本+类目+价格）独立批量计算、独立缓存
// - 写时复制发布：矩阵在本地构建完成后整值原子换入缓存，读方永远看到完整快照
// - singleflight 重算去重 + 可选惰性触发，冷启动/混合推荐共用一套打分函数
package mallrec

import (
	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/service"
	"github.com/rushteam/mallrec/similarity"
)

// 轻量 facade：便于用户直接 import "mallrec" 使用核心抽象。
type Recommender = service.Recommender
type Scheduler = similarity.Scheduler
type RecommendItem = core.RecommendItem
type ProductRecommendation = core.ProductRecommendation
type SimilarityMatrix = core.SimilarityMatrix

const (
	MatrixKindCollaborative = core.MatrixKindCollaborative
	MatrixKindContent       = core.MatrixKindContent
)
