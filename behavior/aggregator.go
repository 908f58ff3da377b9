// Package behavior 把用户的购买/收藏/评价记录折叠成行为画像。
package behavior

import (
	"context"
	"fmt"

	"github.com/rushteam/mallrec/core"
)

// Aggregator 是行为聚合器（Behavior Aggregator）。
//
// 算法流程：
//  1. 从数据源拉取该用户的购买/收藏/评价三类记录
//  2. 购买：同一商品跨订单累加件数
//  3. 收藏：置位 Favorited 并记录收藏时间（多条记录后写覆盖）
//  4. 评价：记录评价分（多条记录后写覆盖，一个用户对一个商品通常只评一次）
//
// 只读、无副作用；用户无任何记录时返回空画像而非错误。
type Aggregator struct {
	Source core.DataSource
}

func NewAggregator(source core.DataSource) *Aggregator {
	return &Aggregator{Source: source}
}

// Profile 构建 userID 的行为画像。请求级重建，不缓存。
func (a *Aggregator) Profile(ctx context.Context, userID string) (*core.BehaviorProfile, error) {
	profile := core.NewBehaviorProfile(userID)
	if a.Source == nil || userID == "" {
		return profile, nil
	}

	purchases, err := a.Source.ListUserPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user purchases: %w", err)
	}
	for _, p := range purchases {
		if p == nil || p.ProductID == "" {
			continue
		}
		b := profile.Behavior(p.ProductID)
		if p.Quantity > 0 {
			b.PurchaseCount += p.Quantity
		}
	}

	favorites, err := a.Source.ListUserFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user favorites: %w", err)
	}
	for _, f := range favorites {
		if f == nil || f.ProductID == "" {
			continue
		}
		b := profile.Behavior(f.ProductID)
		b.Favorited = true
		if !f.CreatedAt.IsZero() {
			t := f.CreatedAt
			b.FavoritedAt = &t
		}
	}

	evaluations, err := a.Source.ListUserEvaluations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user evaluations: %w", err)
	}
	for _, e := range evaluations {
		if e == nil || e.ProductID == "" {
			continue
		}
		b := profile.Behavior(e.ProductID)
		score := e.Score
		b.Rating = &score
	}

	return profile, nil
}
