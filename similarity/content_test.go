package similarity

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/datasource"
)

func computeContent(t *testing.T, products []*core.Product) *core.SimilarityMatrix {
	t.Helper()
	ds := datasource.NewMemoryDataSource()
	ds.Products = products
	matrix, err := NewContentEngine(ds, nil).Compute(context.Background())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	return matrix
}

func TestContentEngine_TeaExample(t *testing.T) {
	// 红茶 vs 绿茶：名称字符集 {红,茶} vs {绿,茶}，交 1 / 并 3；
	// 描述双空 = 1.0；无类目 = 0；价格 1 - |10-12|/11
	matrix := computeContent(t, []*core.Product{
		{ID: "p1", Name: "红茶", Price: 10},
		{ID: "p2", Name: "绿茶", Price: 12},
	})

	text := 0.7*(1.0/3.0) + 0.3*1.0
	price := 1.0 - 2.0/11.0
	want := 0.6*text + 0.3*0 + 0.1*price

	if got := matrix.Similarity("p1", "p2"); math.Abs(got-want) > 1e-9 {
		t.Errorf("sim(红茶,绿茶) = %v, want %v", got, want)
	}
	if matrix.Similarity("p1", "p2") != matrix.Similarity("p2", "p1") {
		t.Errorf("content matrix not symmetric")
	}
	if got := matrix.Similarity("p1", "p1"); got != 1.0 {
		t.Errorf("self similarity = %v, want 1.0", got)
	}
}

func TestContentEngine_CategoryJaccard(t *testing.T) {
	matrix := computeContent(t, []*core.Product{
		{ID: "p1", Name: "保温杯", CategoryIDs: []string{"c1", "c2"}, Price: 50},
		{ID: "p2", Name: "保温壶", CategoryIDs: []string{"c1", "c3"}, Price: 50},
	})

	// 名称：{保,温,杯} vs {保,温,壶} = 2/4；描述双空 = 1；类目 1/3；价格相等 = 1
	text := 0.7*0.5 + 0.3*1.0
	want := 0.6*text + 0.3*(1.0/3.0) + 0.1*1.0
	if got := matrix.Similarity("p1", "p2"); math.Abs(got-want) > 1e-9 {
		t.Errorf("sim = %v, want %v", got, want)
	}
}

func TestContentEngine_SparseThreshold(t *testing.T) {
	// 文本无交集、单边描述为空、无共同类目、价格差大于两倍均价：融合 = 0，低于阈值不存储
	matrix := computeContent(t, []*core.Product{
		{ID: "p1", Name: "abc", Description: "x", Price: 10},
		{ID: "p2", Name: "def", Price: 40},
	})

	row := matrix.Row("p1")
	if _, ok := row["p2"]; ok {
		t.Errorf("entry below threshold should be omitted, got %v", row["p2"])
	}
	// 自相似条目始终存在
	if got := row["p1"]; got != 1.0 {
		t.Errorf("self entry = %v, want 1.0", got)
	}
}

func TestPriceSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 float64
		want   float64
	}{
		{"equal prices", 10, 10, 1.0},
		{"small gap", 10, 12, 1.0 - 2.0/11.0},
		{"larger gap", 10, 20, 1.0 - 10.0/15.0},
		{"gap beyond twice the average clamps to zero", 10, 40, 0},
		{"both zero avoids division by zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priceSimilarity(tt.p1, tt.p2); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("priceSimilarity(%v,%v) = %v, want %v", tt.p1, tt.p2, got, tt.want)
			}
		})
	}
}

func TestPriceSimilarity_Monotonic(t *testing.T) {
	prev := 1.0
	for _, p2 := range []float64{10, 12, 15, 20, 25} {
		got := priceSimilarity(10, p2)
		if got > prev {
			t.Fatalf("price similarity must not increase with price gap: sim(10,%v)=%v > %v", p2, got, prev)
		}
		prev = got
	}
}

func TestCharSetJaccard(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 string
		want   float64
	}{
		{"both empty", "", "", 1.0},
		{"one empty", "茶", "", 0.0},
		{"identical", "红茶", "红茶", 1.0},
		{"partial overlap", "红茶", "绿茶", 1.0 / 3.0},
		{"case insensitive", "Tea", "tea", 1.0},
		{"disjoint", "abc", "def", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := charSetJaccard(tt.s1, tt.s2); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("charSetJaccard(%q,%q) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}
