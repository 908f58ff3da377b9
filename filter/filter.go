// Package filter 提供推荐结果的业务过滤：黑名单、CEL 规则等。
package filter

import (
	"context"

	"github.com/rushteam/mallrec/core"
	"github.com/rushteam/mallrec/pkg/utils"
)

// Filter 是过滤器的抽象接口，用于判断一条推荐是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断推荐是否应该被过滤
	ShouldFilter(ctx context.Context, rec *core.ProductRecommendation) (bool, error)
}

// Apply 依次应用过滤器；任何一个返回 true 该条即被移除。
// 过滤器出错时跳过该过滤器、保留结果（过滤失败不应让推荐整体失败）。
func Apply(ctx context.Context, filters []Filter, recs []core.ProductRecommendation) []core.ProductRecommendation {
	if len(filters) == 0 || len(recs) == 0 {
		return recs
	}

	out := make([]core.ProductRecommendation, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		filtered := false
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rec)
			if err != nil {
				continue
			}
			if ok {
				filtered = true
				rec.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if !filtered {
			out = append(out, *rec)
		}
	}
	return out
}

// BlacklistFilter 过滤掉黑名单中的商品。
type BlacklistFilter struct {
	ProductIDs []string
}

func (f *BlacklistFilter) Name() string { return "filter.blacklist" }

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	rec *core.ProductRecommendation,
) (bool, error) {
	if rec == nil {
		return true, nil
	}
	for _, id := range f.ProductIDs {
		if rec.Product.ID == id {
			return true, nil
		}
	}
	return false, nil
}
