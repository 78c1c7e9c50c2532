package recommend

import (
	"context"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/rerank"
)

// Service 是面向展示层的推荐服务：装载用户书架、执行召回 -> 过滤 -> 截断
// 的完整 Pipeline，并保证边界契约：用户书架上任意状态的书都不会出现在结果里。
//
// 查询期只读已加载的 bundle，多请求并发共享无需加锁；
// 重训后调用 Handle.Reload 换引用即可热更新。
type Service struct {
	Handle  *artifact.Handle
	Library dataset.LibrarySource

	// Filters 追加在 OwnedFilter 之后的自定义过滤器（如 CEL 规则）
	Filters []filter.Filter

	// TopN / Neighbors 默认查询参数，调用传 0 时生效
	TopN      int
	Neighbors int
}

// NewService 创建推荐服务。
func NewService(h *artifact.Handle, lib dataset.LibrarySource) *Service {
	return &Service{Handle: h, Library: lib}
}

// Recommend 为用户返回至多 topN 条推荐。
//
// 用户的已知书目从 Library 装载（任意阅读状态都算已知）；
// 书架为空或没有一本命中索引时返回 ErrNoSignal。
func (s *Service) Recommend(ctx context.Context, userID string, topN, neighbors int) ([]Recommendation, error) {
	records, err := s.Library.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	known := make([]string, 0, len(records))
	for _, rec := range records {
		known = append(known, rec.ISBN)
	}
	if len(known) == 0 {
		return nil, ErrNoSignal
	}

	return s.RecommendKnown(ctx, userID, known, topN, neighbors)
}

// RecommendKnown 与 Recommend 相同，但由调用方直接提供已知书目列表。
func (s *Service) RecommendKnown(ctx context.Context, userID string, known []string, topN, neighbors int) ([]Recommendation, error) {
	if topN <= 0 {
		topN = s.TopN
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	rec := &Recommender{Handle: s.Handle, TopN: topN, Neighbors: s.Neighbors}

	rctx := &core.RecommendContext{
		UserID:     userID,
		KnownItems: dedupeOrdered(known),
	}

	filters := make([]filter.Filter, 0, 1+len(s.Filters))
	filters = append(filters, &filter.OwnedFilter{Library: s.Library})
	filters = append(filters, s.Filters...)

	pipe := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&IndexRecall{Recommender: rec, Neighbors: neighbors},
			&filter.FilterNode{Filters: filters},
			&rerank.TopNNode{N: topN},
		},
	}

	items, err := pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		out = append(out, Recommendation{
			ISBN:   it.ID,
			Title:  it.Title(),
			Author: it.Author(),
			Score:  roundScore(it.Score),
		})
	}
	return out, nil
}
