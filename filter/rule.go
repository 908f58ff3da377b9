package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/mallrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("product", cel.DynType),
			cel.Variable("score", cel.DoubleType),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是 CEL (Common Expression Language) 规则过滤器，
// 用业务表达式剔除不符合约束的推荐结果，规则可配置化下发而无需改代码。
//
// 表达式语法（CEL 标准语法）：
//   - 价格上限：product.price > 9999.0
//   - 类目封禁："c_adult" in product.categories
//   - 组合：product.price > 500.0 && score < 0.2
//
// 表达式返回 true 表示该条推荐被过滤掉。
type RuleFilter struct {
	expr string
	prg  cel.Program
}

// NewRuleFilter 编译表达式并返回过滤器，表达式只编译一次、可并发复用。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	return &RuleFilter{expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rec *core.ProductRecommendation,
) (bool, error) {
	if rec == nil {
		return true, nil
	}

	out, _, err := f.prg.Eval(map[string]any{
		"product": map[string]any{
			"id":         rec.Product.ID,
			"name":       rec.Product.Name,
			"price":      rec.Product.Price,
			"categories": rec.Product.CategoryIDs,
		},
		"score": rec.Score,
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", f.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", f.expr, out.Value())
	}
	return result, nil
}

var _ Filter = (*RuleFilter)(nil)
var _ Filter = (*BlacklistFilter)(nil)
