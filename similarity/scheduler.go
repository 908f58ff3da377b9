package similarity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/mallrec/pkg/logger"
)

// Scheduler 按 cron 表达式定时触发全量矩阵重算（如每天凌晨低峰期）。
//
// 两个矩阵的重算互相独立，用 errgroup 并发执行；
// 单个矩阵失败不影响另一个（失败的那轮不发布，旧矩阵继续服务）。
// Stop 会取消在途重算的 context；被取消的一轮不发布即可，正确性不受影响。
type Scheduler struct {
	cron   *cron.Cron
	caches []*MatrixCache
	log    *logger.Logger

	cancel context.CancelFunc

	mu          sync.Mutex
	lastRunAt   time.Time
	lastRunErrs []string
}

// NewScheduler 创建调度器。spec 为标准 5 段 cron 表达式。
func NewScheduler(spec string, log *logger.Logger, caches ...*MatrixCache) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		caches: caches,
		log:    log.With("component", "scheduler"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(ctx) }); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Start 启动定时任务（异步，立即返回）。
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop 停止调度并取消在途重算，等待任务退出。
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunOnce 手动触发一轮全量重算（等价于一次定时触发）。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	start := time.Now()
	var mu sync.Mutex
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	for _, cache := range s.caches {
		c := cache
		g.Go(func() error {
			if err := c.Recompute(gctx); err != nil {
				// 记录但不传播：单个矩阵失败不应中止其它矩阵的重算
				mu.Lock()
				errs = append(errs, c.Kind()+": "+err.Error())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.lastRunAt = start
	s.lastRunErrs = errs
	s.mu.Unlock()

	if len(errs) > 0 {
		s.log.Warn("scheduled recompute finished with errors", "errors", errs, "elapsed", time.Since(start))
		return fmt.Errorf("recompute: %s", strings.Join(errs, "; "))
	}
	s.log.Info("scheduled recompute finished", "elapsed", time.Since(start))
	return nil
}

// LastRun 返回最近一轮重算的时间与失败信息（诊断用）。
func (s *Scheduler) LastRun() (time.Time, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt, append([]string(nil), s.lastRunErrs...)
}
