// Package service 是推荐引擎的门面，对外暴露推荐与重算操作。
// HTTP/RPC 层只依赖本包，不感知引擎内部结构。
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/mallrec/behavior"
	"github.com/rushteam/mallrec/config"
	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/filter"
	"github.com/rushteam/mallrec/pkg/logger"
	"github.com/rushteam/mallrec/recommend"
	"github.com/rushteam/mallrec/similarity"
)

// Recommender 组装行为聚合器、两个相似度引擎、打分器、冷启动与混合合并器。
//
// 并发模型：
//   - 推荐调用无状态、只读，可任意并发
//   - 矩阵重算由 MatrixCache 串行化（singleflight），调用方只是触发
type Recommender struct {
	source     core.DataSource
	aggregator *behavior.Aggregator
	cf         *similarity.MatrixCache
	cb         *similarity.MatrixCache
	scorer     *recommend.Scorer
	coldstart  *recommend.ColdStart
	hybrid     *recommend.Hybrid
	filters    []filter.Filter

	newUserThreshold int
	log              *logger.Logger
}

// New 按配置组装 Recommender。
// st 同时用作两个矩阵的缓存后端；实现了 core.KeyValueStore 时，
// 冷启动自动获得热门榜兜底能力。
func New(cfg *config.Config, source core.DataSource, st core.Store, log *logger.Logger) *Recommender {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}

	cfEngine := similarity.NewCollaborativeEngine(source, cfg.Similarity.Alpha, log)
	cbEngine := similarity.NewContentEngine(source, log)
	cbEngine.TextNameWeight = cfg.Similarity.TextNameWeight
	cbEngine.TextDescWeight = cfg.Similarity.TextDescWeight
	cbEngine.TextWeight = cfg.Similarity.ContentTextWeight
	cbEngine.CategoryWeight = cfg.Similarity.ContentCategoryWeight
	cbEngine.PriceWeight = cfg.Similarity.ContentPriceWeight
	cbEngine.Threshold = cfg.Similarity.ContentThreshold

	cacheOpts := []similarity.CacheOption{
		similarity.WithTTL(cfg.Similarity.CacheTTL),
		similarity.WithLogger(log),
	}
	if cfg.Similarity.AllowLazyCompute {
		interval := time.Duration(cfg.Similarity.LazyComputeIntervalSec) * time.Second
		cacheOpts = append(cacheOpts, similarity.WithLazyCompute(interval))
	}

	coldstart := recommend.NewColdStart(source, log)
	coldstart.TagCategories = cfg.ColdStart.TagCategories
	coldstart.DefaultCategories = cfg.ColdStart.DefaultCategories
	coldstart.SeedLimit = cfg.ColdStart.SeedLimit
	coldstart.HotKey = cfg.ColdStart.HotKey
	if kv, ok := st.(core.KeyValueStore); ok {
		coldstart.Hot = kv
	}

	hybrid := recommend.NewHybrid(source)
	hybrid.CFWeight = cfg.Recommend.HybridCFWeight
	hybrid.CBWeight = cfg.Recommend.HybridCBWeight

	return &Recommender{
		source:           source,
		aggregator:       behavior.NewAggregator(source),
		cf:               similarity.NewMatrixCache(cfEngine, st, cfg.Similarity.CollaborativeKey, cacheOpts...),
		cb:               similarity.NewMatrixCache(cbEngine, st, cfg.Similarity.ContentKey, cacheOpts...),
		scorer:           recommend.NewScorer(source),
		coldstart:        coldstart,
		hybrid:           hybrid,
		newUserThreshold: cfg.Recommend.NewUserThreshold,
		log:              log.With("component", "recommender"),
	}
}

// AddFilter 追加一个结果过滤器（作用于混合推荐输出）。
func (r *Recommender) AddFilter(f filter.Filter) {
	r.filters = append(r.filters, f)
}

// Collaborative / Content 暴露矩阵缓存，供调度器接管重算。
func (r *Recommender) Collaborative() *similarity.MatrixCache { return r.cf }
func (r *Recommender) Content() *similarity.MatrixCache       { return r.cb }

// Recommend 协同路径推荐：新用户自动路由冷启动。
// 普通"无数据"场景（矩阵未就绪、无候选）返回空列表而非错误。
func (r *Recommender) Recommend(ctx context.Context, userID string, topK int) ([]core.RecommendItem, error) {
	return r.recommendWith(ctx, userID, topK, r.cf)
}

// RecommendContentBased 内容路径推荐（混合推荐的另一路，也可单独用于诊断）。
func (r *Recommender) RecommendContentBased(ctx context.Context, userID string, topK int) ([]core.RecommendItem, error) {
	return r.recommendWith(ctx, userID, topK, r.cb)
}

func (r *Recommender) recommendWith(
	ctx context.Context,
	userID string,
	topK int,
	cache *similarity.MatrixCache,
) ([]core.RecommendItem, error) {
	if topK <= 0 {
		return nil, nil
	}

	profile, err := r.aggregator.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build behavior profile: %w", err)
	}

	if profile.InteractionCount() <= r.newUserThreshold {
		return r.recommendColdStart(ctx, userID, topK)
	}

	matrix, err := cache.Matrix(ctx)
	if err != nil {
		if core.IsNotReady(err) {
			r.log.Warn("matrix not ready, serving empty result", "matrix", cache.Kind(), "user", userID)
			return nil, nil
		}
		return nil, err
	}
	return r.scorer.Score(ctx, profile, matrix, topK)
}

// recommendColdStart 冷启动统一走内容矩阵做种子传播。
func (r *Recommender) recommendColdStart(ctx context.Context, userID string, topK int) ([]core.RecommendItem, error) {
	matrix, err := r.cb.Matrix(ctx)
	if err != nil {
		if core.IsNotReady(err) {
			r.log.Warn("content matrix not ready, serving empty result", "user", userID)
			return nil, nil
		}
		return nil, err
	}
	return r.coldstart.Recommend(ctx, userID, matrix, topK)
}

// RecommendHybrid 混合推荐：两路各取 2*topK，按固定权重融合后解析完整商品。
func (r *Recommender) RecommendHybrid(ctx context.Context, userID string, topK int) ([]core.ProductRecommendation, error) {
	if topK <= 0 {
		return nil, nil
	}

	cfItems, err := r.Recommend(ctx, userID, 2*topK)
	if err != nil {
		return nil, err
	}
	cbItems, err := r.RecommendContentBased(ctx, userID, 2*topK)
	if err != nil {
		return nil, err
	}

	recs, err := r.hybrid.Combine(ctx, cfItems, cbItems, topK)
	if err != nil {
		return nil, err
	}
	return filter.Apply(ctx, r.filters, recs), nil
}

// RecomputeCollaborative 手动触发协同矩阵重算。
func (r *Recommender) RecomputeCollaborative(ctx context.Context) error {
	return r.cf.Recompute(ctx)
}

// RecomputeContent 手动触发内容矩阵重算。
func (r *Recommender) RecomputeContent(ctx context.Context) error {
	return r.cb.Recompute(ctx)
}

// RecomputeAll 并发重算两个矩阵。
func (r *Recommender) RecomputeAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.cf.Recompute(gctx) })
	g.Go(func() error { return r.cb.Recompute(gctx) })
	return g.Wait()
}

// Matrix 按种类返回当前矩阵快照（诊断用）。
func (r *Recommender) Matrix(ctx context.Context, kind string) (*core.SimilarityMatrix, error) {
	switch kind {
	case core.MatrixKindCollaborative:
		return r.cf.Matrix(ctx)
	case core.MatrixKindContent:
		return r.cb.Matrix(ctx)
	default:
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: unknown matrix kind %q", kind))
	}
}
