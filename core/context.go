package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// KnownItems 是用户已知物品（ISBN）的有序列表，保持首次出现顺序。
	// 包含任意阅读状态下的书：已知物品永远不会出现在推荐结果里。
	KnownItems []string

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（如 topN / neighbors 覆盖、过滤器缓存等）
	Params map[string]any
}

// KnownSet 返回 KnownItems 的集合形式，供过滤/聚合快速判重。
func (rctx *RecommendContext) KnownSet() map[string]struct{} {
	set := make(map[string]struct{}, len(rctx.KnownItems))
	for _, id := range rctx.KnownItems {
		set[id] = struct{}{}
	}
	return set
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
