package recommend

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// IndexRecall 是基于训练好的相似度索引的 i2i 召回源。
// 输入 rctx.KnownItems（用户已知书目），输出带累计分的候选集，
// 供下游 Filter / ReRank 节点继续处理。
//
// 同时实现 Node 接口，可以直接挂进 Pipeline。
type IndexRecall struct {
	Recommender *Recommender

	// Neighbors 邻域宽度 k，<=0 时取 Recommender / bundle 默认值
	Neighbors int
}

func (r *IndexRecall) Name() string        { return "recall.i2i" }
func (r *IndexRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *IndexRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 对 rctx.KnownItems 做近邻聚合，返回全部正相似度候选（不截断）。
// 截断交给下游 rerank.TopNNode，保证过滤发生在截断之前。
func (r *IndexRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Recommender == nil || rctx == nil || len(rctx.KnownItems) == 0 {
		return nil, ErrNoSignal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := r.Recommender.Handle.Bundle()

	neighbors := r.Neighbors
	if neighbors <= 0 {
		neighbors = r.Recommender.Neighbors
	}
	if neighbors <= 0 {
		neighbors = b.Neighbors
	}
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}

	ranked, err := aggregate(b, rctx.KnownItems, neighbors)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, s := range ranked {
		it := core.NewItem(s.isbn)
		it.Score = s.score
		bm := resolveMeta(b, s.isbn)
		it.Meta["title"] = bm.Title
		it.Meta["author"] = bm.Author
		it.PutLabel("recall_source", utils.Label{Value: "i2i", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
