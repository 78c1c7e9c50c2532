package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式对单个候选求值，返回 true 的候选被剔除。
//
// 示例：
//
//	&RuleFilter{Expr: `item.meta.author == "Unknown"`} // 剔除作者未知的书
//	&RuleFilter{Expr: `item.score < 0.1`}              // 剔除弱信号候选
type RuleFilter struct {
	// Expr 是 CEL 表达式；空表达式不过滤任何候选
	Expr string
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}

	matched, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		// 表达式错误不拦截请求：保留候选并把错误交给 FilterNode 记录
		return false, err
	}
	return matched, nil
}
