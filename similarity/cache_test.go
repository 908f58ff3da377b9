package similarity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/store"
)

// fakeEngine 是可控的 Engine 实现：可计数、可失败、可阻塞。
type fakeEngine struct {
	mu      sync.Mutex
	calls   int
	fail    bool
	block   chan struct{} // 非 nil 时 Compute 阻塞直到关闭
	started chan struct{} // 第一次 Compute 进入时关闭
	score   float64
}

func (f *fakeEngine) Kind() string { return core.MatrixKindContent }

func (f *fakeEngine) Compute(ctx context.Context) (*core.SimilarityMatrix, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	fail := f.fail
	score := f.score
	f.mu.Unlock()

	if first && f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if fail {
		return nil, errors.New("datasource unreachable")
	}

	m := core.NewSimilarityMatrix(core.MatrixKindContent)
	m.SetPair("p1", "p2", score)
	return m, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestMatrixCache_NotReadyWithoutLazyCompute(t *testing.T) {
	cache := NewMatrixCache(&fakeEngine{}, store.NewMemoryStore(), "test:matrix")

	_, err := cache.Matrix(context.Background())
	if !core.IsNotReady(err) {
		t.Fatalf("Matrix() on cache miss without lazy compute: err = %v, want NOT_READY", err)
	}
}

func TestMatrixCache_LazyComputeOnMiss(t *testing.T) {
	engine := &fakeEngine{score: 0.5}
	cache := NewMatrixCache(engine, store.NewMemoryStore(), "test:matrix", WithLazyCompute(0))

	m, err := cache.Matrix(context.Background())
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if got := m.Similarity("p1", "p2"); got != 0.5 {
		t.Errorf("sim(p1,p2) = %v, want 0.5", got)
	}
	if engine.callCount() != 1 {
		t.Errorf("compute calls = %d, want 1", engine.callCount())
	}

	// 第二次读取命中进程内快照，不再触发计算
	if _, err := cache.Matrix(context.Background()); err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if engine.callCount() != 1 {
		t.Errorf("compute calls after snapshot hit = %d, want 1", engine.callCount())
	}
}

func TestMatrixCache_LazyComputeRateLimited(t *testing.T) {
	engine := &fakeEngine{fail: true}
	cache := NewMatrixCache(engine, store.NewMemoryStore(), "test:matrix",
		WithLazyCompute(time.Hour))

	// 第一次未命中触发重算（失败）；第二次落入限流窗口，直接 NOT_READY
	if _, err := cache.Matrix(context.Background()); err == nil {
		t.Fatalf("Matrix() should fail when compute fails")
	}
	_, err := cache.Matrix(context.Background())
	if !core.IsNotReady(err) {
		t.Fatalf("Matrix() within rate-limit window: err = %v, want NOT_READY", err)
	}
	if engine.callCount() != 1 {
		t.Errorf("compute calls = %d, want 1", engine.callCount())
	}
}

func TestMatrixCache_RecomputeReplacesMatrix(t *testing.T) {
	engine := &fakeEngine{score: 0.4}
	cache := NewMatrixCache(engine, store.NewMemoryStore(), "test:matrix")

	if err := cache.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if cache.Version() != 1 {
		t.Errorf("version = %d, want 1", cache.Version())
	}

	engine.mu.Lock()
	engine.score = 0.9
	engine.mu.Unlock()

	if err := cache.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	m, err := cache.Matrix(context.Background())
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if got := m.Similarity("p1", "p2"); got != 0.9 {
		t.Errorf("sim after replace = %v, want 0.9 (replace, not merge)", got)
	}
	if cache.Version() != 2 {
		t.Errorf("version = %d, want 2", cache.Version())
	}
}

func TestMatrixCache_FailedRecomputeKeepsPreviousMatrix(t *testing.T) {
	engine := &fakeEngine{score: 0.4}
	cache := NewMatrixCache(engine, store.NewMemoryStore(), "test:matrix")

	if err := cache.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	engine.mu.Lock()
	engine.fail = true
	engine.mu.Unlock()

	if err := cache.Recompute(context.Background()); err == nil {
		t.Fatalf("Recompute() should propagate compute failure")
	}

	// 失败的一轮不发布：旧矩阵可读，版本不变
	m, err := cache.Matrix(context.Background())
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if got := m.Similarity("p1", "p2"); got != 0.4 {
		t.Errorf("sim after failed recompute = %v, want 0.4 (previous matrix)", got)
	}
	if cache.Version() != 1 {
		t.Errorf("version = %d, want 1", cache.Version())
	}
}

func TestMatrixCache_SingleflightDedup(t *testing.T) {
	engine := &fakeEngine{
		score:   0.5,
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	cache := NewMatrixCache(engine, store.NewMemoryStore(), "test:matrix")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Recompute(context.Background())
		}()
	}

	<-engine.started
	time.Sleep(100 * time.Millisecond) // 等其余触发方加入同一轮在途计算
	close(engine.block)
	wg.Wait()

	if engine.callCount() != 1 {
		t.Errorf("concurrent recomputes ran %d computations, want 1 (singleflight)", engine.callCount())
	}
}

func TestMatrixCache_ReadsPublishedMatrixFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	writer := NewMatrixCache(&fakeEngine{score: 0.6}, st, "test:matrix")
	if err := writer.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	// 新实例（如另一进程）无快照，从 Store 读到完整矩阵，无需重算
	readerEngine := &fakeEngine{}
	reader := NewMatrixCache(readerEngine, st, "test:matrix")
	m, err := reader.Matrix(context.Background())
	if err != nil {
		t.Fatalf("Matrix() error = %v", err)
	}
	if got := m.Similarity("p1", "p2"); got != 0.6 {
		t.Errorf("sim from store = %v, want 0.6", got)
	}
	if readerEngine.callCount() != 0 {
		t.Errorf("reader should not recompute, calls = %d", readerEngine.callCount())
	}
}
