package recommend

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/datasource"
	"github.com/rushteam/mallrec/store"
)

func coldStartFixture() (*datasource.MemoryDataSource, *core.SimilarityMatrix) {
	ds := datasource.NewMemoryDataSource()
	ds.Products = []*core.Product{
		{ID: "p1", Name: "红茶", CategoryIDs: []string{"c1"}, Price: 10},
		{ID: "p2", Name: "绿茶", CategoryIDs: []string{"c2"}, Price: 12},
		{ID: "p3", Name: "花茶", CategoryIDs: []string{"c2"}, Price: 15},
		{ID: "p4", Name: "咖啡", CategoryIDs: []string{"c3"}, Price: 20},
	}
	ds.Users["u_new"] = &core.User{ID: "u_new", Gender: "male", Email: "x@example.com"}

	matrix := core.NewSimilarityMatrix(core.MatrixKindContent)
	matrix.SetPair("p1", "p2", 0.5)
	matrix.SetPair("p1", "p3", 0.3)
	matrix.SetPair("p2", "p3", 0.6)
	return ds, matrix
}

func TestColdStart_SeedPropagation(t *testing.T) {
	ds, matrix := coldStartFixture()
	cs := NewColdStart(ds, nil)
	cs.TagCategories = map[string][]string{TagMale: {"c1"}}

	items, err := cs.Recommend(context.Background(), "u_new", matrix, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// 种子 = c1 下的 p1；传播：p2 得 0.5，p3 得 0.3，种子自身跳过
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].ProductID != "p2" || math.Abs(items[0].Score-0.5) > 1e-9 {
		t.Errorf("items[0] = %+v, want p2 score 0.5", items[0])
	}
	if items[1].ProductID != "p3" || math.Abs(items[1].Score-0.3) > 1e-9 {
		t.Errorf("items[1] = %+v, want p3 score 0.3", items[1])
	}
}

func TestColdStart_SeedsAreExcluded(t *testing.T) {
	ds, matrix := coldStartFixture()
	cs := NewColdStart(ds, nil)
	// c2 下的 p2 和 p3 都是种子，互为相似也不能推荐彼此
	cs.TagCategories = map[string][]string{TagMale: {"c2"}}

	items, err := cs.Recommend(context.Background(), "u_new", matrix, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, it := range items {
		if it.ProductID == "p2" || it.ProductID == "p3" {
			t.Errorf("seed product %s must not appear in results", it.ProductID)
		}
	}
	// p1 从两个种子各收到一份相似度
	var p1Score float64
	for _, it := range items {
		if it.ProductID == "p1" {
			p1Score = it.Score
		}
	}
	if want := 0.5 + 0.3; math.Abs(p1Score-want) > 1e-9 {
		t.Errorf("p1 score = %v, want %v", p1Score, want)
	}
}

func TestColdStart_DefaultCategoryFallback(t *testing.T) {
	ds, matrix := coldStartFixture()
	cs := NewColdStart(ds, nil)
	// 标签表为空：落到默认类目
	cs.DefaultCategories = []string{"c2"}

	items, err := cs.Recommend(context.Background(), "u_new", matrix, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatalf("default categories should produce seeds and results")
	}
	if items[0].ProductID != "p1" {
		t.Errorf("items[0] = %+v, want p1 (propagated from c2 seeds)", items[0])
	}
}

func TestColdStart_HotListFallback(t *testing.T) {
	ds, matrix := coldStartFixture()
	st := store.NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	// 类目下没有任何商品 -> 从热门榜取种子
	if err := st.ZAdd(ctx, "test:hot", 100, "p1"); err != nil {
		t.Fatalf("ZAdd() error = %v", err)
	}

	cs := NewColdStart(ds, nil)
	cs.TagCategories = map[string][]string{TagMale: {"c_missing"}}
	cs.Hot = st
	cs.HotKey = "test:hot"

	items, err := cs.Recommend(ctx, "u_new", matrix, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (propagated from hot seed p1): %+v", len(items), items)
	}
	if items[0].ProductID != "p2" {
		t.Errorf("items[0] = %+v, want p2", items[0])
	}
}

func TestColdStart_UnknownUser(t *testing.T) {
	ds, matrix := coldStartFixture()
	items, err := NewColdStart(ds, nil).Recommend(context.Background(), "ghost", matrix, 10)
	if err != nil {
		t.Fatalf("unknown user should not be an error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("unknown user should get empty list, got %+v", items)
	}
}

func TestDeriveTags(t *testing.T) {
	tests := []struct {
		name string
		user core.User
		want []string
	}{
		{"male general", core.User{Gender: "male", Email: "a@qq.com"}, []string{TagMale, TagGeneral}},
		{"female student edu", core.User{Gender: "Female", Email: "a@mit.edu"}, []string{TagFemale, TagStudent}},
		{"student edu.cn", core.User{Gender: "", Email: "a@tsinghua.edu.cn"}, []string{TagStudent}},
		{"no email", core.User{Gender: "male"}, []string{TagMale, TagGeneral}},
		{"unknown gender", core.User{Gender: "other", Email: "a@qq.com"}, []string{TagGeneral}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTags(&tt.user); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveTags() = %v, want %v", got, tt.want)
			}
		})
	}
}
