package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
)

// ownedSetParam 是已拥有集合在 rctx.Params 中的缓存 key。
// 同一请求内只从存储装载一次，后续 item 直接查集合。
const ownedSetParam = "filter.owned.set"

// OwnedFilter 是边界契约的最后防线：用户书架上任意状态的书
// （想读/在读/读完/弃读）都不允许出现在最终推荐列表里。
//
// 聚合层已经按 rctx.KnownItems 跳过已知书目；此过滤器在 Pipeline 里
// 再做一次集合校验，并可选地从 Library 补充取书架全量，
// 覆盖调用方传入的 KnownItems 不完整的情况。
type OwnedFilter struct {
	// Library 可选：提供时按 rctx.UserID 装载用户书架记录
	Library dataset.LibrarySource
}

func (f *OwnedFilter) Name() string {
	return "filter.owned"
}

func (f *OwnedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}

	owned, err := f.ownedSet(ctx, rctx)
	if err != nil {
		// 存储短暂不可用时放行：聚合层已按 KnownItems 过滤过一轮
		return false, nil
	}

	_, ok := owned[item.ID]
	return ok, nil
}

func (f *OwnedFilter) ownedSet(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if rctx.Params != nil {
		if cached, ok := rctx.Params[ownedSetParam].(map[string]struct{}); ok {
			return cached, nil
		}
	}

	owned := rctx.KnownSet()
	if f.Library != nil && rctx.UserID != "" {
		records, err := f.Library.UserRecords(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			owned[rec.ISBN] = struct{}{}
		}
	}

	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[ownedSetParam] = owned
	return owned, nil
}
