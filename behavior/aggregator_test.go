package behavior

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/datasource"
)

func TestAggregator_Profile(t *testing.T) {
	ds := datasource.NewMemoryDataSource()
	ds.Purchases = []*core.PurchaseRecord{
		{ProductID: "p1", UserID: "u1", Quantity: 2},
		{ProductID: "p1", UserID: "u1", Quantity: 3}, // 跨订单累加
		{ProductID: "p2", UserID: "u1", Quantity: 1},
		{ProductID: "p9", UserID: "u2", Quantity: 1}, // 其他用户，不应出现
	}
	favAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ds.Favorites = []*core.FavoriteRecord{
		{ProductID: "p2", UserID: "u1", CreatedAt: favAt.Add(-time.Hour)},
		{ProductID: "p2", UserID: "u1", CreatedAt: favAt}, // 后写覆盖
	}
	ds.Evaluations = []*core.EvaluationRecord{
		{ProductID: "p3", UserID: "u1", Score: 8},
	}

	profile, err := NewAggregator(ds).Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}

	if got := profile.Behavior("p1").PurchaseCount; got != 5 {
		t.Errorf("p1 purchase count = %d, want 5", got)
	}
	p2 := profile.Behavior("p2")
	if !p2.Favorited {
		t.Errorf("p2 should be favorited")
	}
	if p2.FavoritedAt == nil || !p2.FavoritedAt.Equal(favAt) {
		t.Errorf("p2 favorite time = %v, want %v", p2.FavoritedAt, favAt)
	}
	p3 := profile.Behavior("p3")
	if p3.Rating == nil || *p3.Rating != 8 {
		t.Errorf("p3 rating = %v, want 8", p3.Rating)
	}
	if profile.Has("p9") {
		t.Errorf("profile must not contain other users' records")
	}
	if profile.IsEmpty() {
		t.Errorf("profile should not be empty")
	}
	if got := profile.InteractionCount(); got != 4 {
		// p1 购买 + p2 购买 + p2 收藏 + p3 评价
		t.Errorf("interaction count = %d, want 4", got)
	}
}

func TestAggregator_EmptyProfile(t *testing.T) {
	ds := datasource.NewMemoryDataSource()
	profile, err := NewAggregator(ds).Profile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if !profile.IsEmpty() {
		t.Errorf("profile for user without records should be empty")
	}
	if got := profile.InteractionCount(); got != 0 {
		t.Errorf("interaction count = %d, want 0", got)
	}
}

func TestProductBehavior_Weight(t *testing.T) {
	now := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	tenDaysAgo := now.AddDate(0, 0, -10)
	rating10 := 10
	rating5 := 5

	tests := []struct {
		name     string
		behavior core.ProductBehavior
		want     float64
	}{
		{
			name:     "purchase count below cap",
			behavior: core.ProductBehavior{PurchaseCount: 3},
			want:     3.0,
		},
		{
			name:     "purchase count capped at 5",
			behavior: core.ProductBehavior{PurchaseCount: 100},
			want:     5.0,
		},
		{
			name:     "favorite without timestamp has no decay",
			behavior: core.ProductBehavior{Favorited: true},
			want:     0.5,
		},
		{
			name:     "favorite decays with days",
			behavior: core.ProductBehavior{Favorited: true, FavoritedAt: &tenDaysAgo},
			want:     0.5 / (1.0 + 0.1*10), // = 0.25
		},
		{
			name:     "max rating",
			behavior: core.ProductBehavior{Rating: &rating10},
			want:     0.8,
		},
		{
			name:     "signals are additive",
			behavior: core.ProductBehavior{PurchaseCount: 1, Favorited: true, Rating: &rating5},
			want:     1.0 + 0.5 + 0.8*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.behavior.Weight(now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}
