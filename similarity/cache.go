package similarity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/logger"
)

// MatrixCache 负责一个引擎的矩阵发布与读取。
//
// 并发治理：
//   - 写时复制发布：Compute 在本地构建新矩阵，成功后整值写入 Store、
//     原子换入进程内快照（atomic.Pointer），读方永远看到完整一致的矩阵
//   - singleflight 去重：同一 key 同时只有一轮在途重算，
//     并发触发方等待同一结果，避免惊群式 O(P²) 重复计算
//   - 惰性重算按需开启（AllowLazyCompute）且有最小间隔限流；
//     关闭时缓存未命中返回 core.ErrMatrixNotReady，由调度器兜底
//   - 计算失败不发布：上一版矩阵（如有）保持可读，宁可旧、不可空
type MatrixCache struct {
	engine Engine
	store  core.Store
	key    string

	ttl          int
	allowLazy    bool
	lazyInterval time.Duration
	log          *logger.Logger

	snapshot atomic.Pointer[core.SimilarityMatrix]
	version  atomic.Int64
	group    singleflight.Group

	mu       sync.Mutex
	lastLazy time.Time
}

// CacheOption 配置 MatrixCache。
type CacheOption func(*MatrixCache)

// WithTTL 设置缓存过期时间（秒，0 表示不过期）。
func WithTTL(seconds int) CacheOption {
	return func(c *MatrixCache) { c.ttl = seconds }
}

// WithLazyCompute 开启缓存未命中时的就地重算，interval 为最小触发间隔。
func WithLazyCompute(interval time.Duration) CacheOption {
	return func(c *MatrixCache) {
		c.allowLazy = true
		c.lazyInterval = interval
	}
}

// WithLogger 注入日志。
func WithLogger(log *logger.Logger) CacheOption {
	return func(c *MatrixCache) { c.log = log }
}

func NewMatrixCache(engine Engine, store core.Store, key string, opts ...CacheOption) *MatrixCache {
	c := &MatrixCache{
		engine: engine,
		store:  store,
		key:    key,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("matrix", engine.Kind(), "key", key)
	return c
}

// Kind 返回矩阵种类。
func (c *MatrixCache) Kind() string { return c.engine.Kind() }

// Version 返回当前快照的版本号（从 1 起，每次成功发布递增），0 表示尚无快照。
func (c *MatrixCache) Version() int64 { return c.version.Load() }

// Recompute 触发一轮批量重算并发布。
// 同一 key 的并发调用被 singleflight 合并为一轮计算。
func (c *MatrixCache) Recompute(ctx context.Context) error {
	_, err, _ := c.group.Do(c.key, func() (any, error) {
		return nil, c.recompute(ctx)
	})
	return err
}

func (c *MatrixCache) recompute(ctx context.Context) error {
	start := time.Now()
	matrix, err := c.engine.Compute(ctx)
	if err != nil {
		// 不发布：上一版矩阵保持可读
		c.log.Error("matrix recompute failed", "err", err)
		return fmt.Errorf("compute %s matrix: %w", c.engine.Kind(), err)
	}

	data, err := matrix.Encode()
	if err != nil {
		return fmt.Errorf("encode %s matrix: %w", c.engine.Kind(), err)
	}
	if err := c.store.Set(ctx, c.key, data, c.ttl); err != nil {
		return fmt.Errorf("publish %s matrix: %w", c.engine.Kind(), err)
	}

	c.snapshot.Store(matrix)
	version := c.version.Add(1)
	c.log.Info("matrix published",
		"version", version,
		"products", matrix.Len(),
		"elapsed", time.Since(start),
	)
	return nil
}

// Matrix 返回当前矩阵快照。
// 读取顺序：进程内快照 -> Store -> （可选）惰性重算。
// 未命中且惰性重算关闭/被限流时返回 core.ErrMatrixNotReady。
func (c *MatrixCache) Matrix(ctx context.Context) (*core.SimilarityMatrix, error) {
	if m := c.snapshot.Load(); m != nil {
		return m, nil
	}

	data, err := c.store.Get(ctx, c.key)
	if err == nil {
		m, decodeErr := core.DecodeSimilarityMatrix(data)
		if decodeErr == nil {
			// 多个读方并发解码时以先到者为准即可
			c.snapshot.CompareAndSwap(nil, m)
			if cur := c.snapshot.Load(); cur != nil {
				return cur, nil
			}
			return m, nil
		}
		c.log.Warn("cached matrix decode failed, recomputing", "err", decodeErr)
	} else if !core.IsStoreNotFound(err) {
		return nil, fmt.Errorf("read %s matrix: %w", c.engine.Kind(), err)
	}

	if !c.allowLazy {
		return nil, core.ErrMatrixNotReady
	}
	if !c.lazyAllowed() {
		return nil, core.ErrMatrixNotReady
	}

	c.log.Info("matrix cache miss, lazy recompute")
	if err := c.Recompute(ctx); err != nil {
		return nil, err
	}
	if m := c.snapshot.Load(); m != nil {
		return m, nil
	}
	return nil, core.ErrMatrixNotReady
}

// lazyAllowed 限流惰性重算：距上次触发不足最小间隔时拒绝。
func (c *MatrixCache) lazyAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if c.lazyInterval > 0 && now.Sub(c.lastLazy) < c.lazyInterval {
		return false
	}
	c.lastLazy = now
	return true
}

// Invalidate 删除缓存与快照，下一轮读取按未命中处理。
func (c *MatrixCache) Invalidate(ctx context.Context) error {
	c.snapshot.Store(nil)
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("invalidate %s matrix: %w", c.engine.Kind(), err)
	}
	return nil
}
