// Package datasource 只包含实现，接口定义在 core 包（core.DataSource）。
package datasource

import (
	"context"

	"github.com/rushteam/mallrec/core"
)

// MemoryDataSource 是内存实现的数据源，用于测试/开发/原型。
// 字段直接暴露，便于在测试中构造数据。
type MemoryDataSource struct {
	Products    []*core.Product
	Purchases   []*core.PurchaseRecord
	Favorites   []*core.FavoriteRecord
	Evaluations []*core.EvaluationRecord
	Users       map[string]*core.User
}

func NewMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{
		Users: make(map[string]*core.User),
	}
}

func (m *MemoryDataSource) Name() string { return "memory" }

func (m *MemoryDataSource) ListActiveProducts(ctx context.Context) ([]*core.Product, error) {
	out := make([]*core.Product, len(m.Products))
	copy(out, m.Products)
	return out, nil
}

func (m *MemoryDataSource) GetProducts(ctx context.Context, ids []string) ([]*core.Product, error) {
	index := make(map[string]*core.Product, len(m.Products))
	for _, p := range m.Products {
		index[p.ID] = p
	}
	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryDataSource) ListProductsByCategories(ctx context.Context, categoryIDs []string, limit int) ([]*core.Product, error) {
	want := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		want[id] = struct{}{}
	}
	out := make([]*core.Product, 0)
	for _, p := range m.Products {
		for _, cid := range p.CategoryIDs {
			if _, ok := want[cid]; ok {
				out = append(out, p)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryDataSource) ListPurchases(ctx context.Context) ([]*core.PurchaseRecord, error) {
	return m.Purchases, nil
}

func (m *MemoryDataSource) ListUserPurchases(ctx context.Context, userID string) ([]*core.PurchaseRecord, error) {
	out := make([]*core.PurchaseRecord, 0)
	for _, r := range m.Purchases {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryDataSource) ListFavorites(ctx context.Context) ([]*core.FavoriteRecord, error) {
	return m.Favorites, nil
}

func (m *MemoryDataSource) ListUserFavorites(ctx context.Context, userID string) ([]*core.FavoriteRecord, error) {
	out := make([]*core.FavoriteRecord, 0)
	for _, r := range m.Favorites {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryDataSource) ListEvaluations(ctx context.Context) ([]*core.EvaluationRecord, error) {
	return m.Evaluations, nil
}

func (m *MemoryDataSource) ListUserEvaluations(ctx context.Context, userID string) ([]*core.EvaluationRecord, error) {
	out := make([]*core.EvaluationRecord, 0)
	for _, r := range m.Evaluations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryDataSource) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return m.Users[userID], nil
}

// 确保 MemoryDataSource 实现了 core.DataSource 接口
var _ core.DataSource = (*MemoryDataSource)(nil)
