// Package recommend 实现查询期的推荐聚合：对用户已知书目逐一检索近邻，
// 把相似度累加成单一排序列表。
package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
)

// 查询参数默认值（调用方传 0 时生效）。
const (
	DefaultTopN      = 12
	DefaultNeighbors = 30
)

// ErrNoSignal 表示用户的已知书目没有一本存在于训练索引的映射中，
// 无从推荐。与"有信号但没有好的候选"（空列表 + nil error）区分开，
// 展示层据此渲染"添加书籍以获取推荐"的空态。
var ErrNoSignal = core.NewDomainError(
	core.ModuleRecommend,
	core.ErrorCodeNoSignal,
	"recommend: none of the known items exist in the trained index",
)

// Recommendation 是推荐列表中的一项。
type Recommendation struct {
	ISBN   string  `json:"isbn"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Score  float64 `json:"score"`
}

// scored 是聚合中间态：ISBN + 累计相似度，保持首次出现顺序。
type scored struct {
	isbn  string
	score float64
}

// aggregate 是聚合核心：对每个能解析到索引行的已知书目，
// 检索 k+1 个近邻（多取一个容忍自匹配），距离转相似度 s = 1 - d，
// 非正相似度不构成推荐信号直接丢弃（不取反），跳过自身与已知书目，
// 同一候选在多个已知书目下的相似度相加（不取均值/最大值），
// 与多本已知书共振的候选累积更高分，奖励广度上的一致。
//
// 排序：累计分降序；分数完全相同时按首次出现顺序稳定排序，输出确定。
func aggregate(b *artifact.Bundle, known []string, neighbors int) ([]scored, error) {
	known = dedupeOrdered(known)
	knownSet := make(map[string]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	base := known[:0:0]
	for _, id := range known {
		if _, ok := b.ItemIndex[id]; ok {
			base = append(base, id)
		}
	}
	if len(base) == 0 {
		return nil, ErrNoSignal
	}

	scores := make(map[string]float64)
	order := make([]string, 0)

	for _, isbn := range base {
		row := b.ItemIndex[isbn]
		vec := b.Matrix.Row(row)

		k := neighbors + 1
		if k > b.Matrix.Rows {
			k = b.Matrix.Rows
		}

		for _, nb := range b.Index.Query(vec, k) {
			nbISBN := b.ItemIDs[nb.Row]

			// 跳过自身与用户已知书目
			if nbISBN == isbn {
				continue
			}
			if _, ok := knownSet[nbISBN]; ok {
				continue
			}

			sim := 1.0 - nb.Distance
			if sim <= 0 {
				continue
			}

			if _, ok := scores[nbISBN]; !ok {
				order = append(order, nbISBN)
			}
			scores[nbISBN] += sim
		}
	}

	out := make([]scored, 0, len(order))
	for _, isbn := range order {
		out = append(out, scored{isbn: isbn, score: scores[isbn]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out, nil
}

// Recommender 是推荐查询入口，持有可热更新的工件句柄。
// 并发安全：单次查询内读到的 bundle 引用一致，重训换版本不影响在途请求。
type Recommender struct {
	Handle *artifact.Handle

	// TopN / Neighbors 是查询参数默认值，调用传 0 时生效
	TopN      int
	Neighbors int
}

// RecommendForUser 对用户的已知书目集合返回至多 topN 条推荐，累计分高者在前。
//
// known 是有序的 ISBN 列表（保留首次出现去重）；topN / neighbors 传 0 取默认值。
// 没有任何已知书目命中索引映射时返回 ErrNoSignal；
// 命中但没有正相似度候选时返回空列表和 nil error。
// 不在索引中的单个 ISBN 静默跳过：残余信号依然有用，不让整个请求失败。
func (r *Recommender) RecommendForUser(ctx context.Context, known []string, topN, neighbors int) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := r.Handle.Bundle()
	if topN <= 0 {
		topN = r.TopN
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if neighbors <= 0 {
		neighbors = r.Neighbors
	}
	if neighbors <= 0 {
		neighbors = b.Neighbors
	}
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}

	ranked, err := aggregate(b, known, neighbors)
	if err != nil {
		return nil, err
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]Recommendation, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, Recommendation{
			ISBN:   s.isbn,
			Title:  resolveMeta(b, s.isbn).Title,
			Author: resolveMeta(b, s.isbn).Author,
			Score:  roundScore(s.score),
		})
	}
	return out, nil
}

// resolveMeta 解析元数据；缺失时返回占位值而不是剔除候选。
func resolveMeta(b *artifact.Bundle, isbn string) core.BookMeta {
	bm, ok := b.Meta[isbn]
	if !ok {
		return core.BookMeta{Title: core.MetaPlaceholder, Author: core.MetaPlaceholder}
	}
	if bm.Title == "" {
		bm.Title = core.MetaPlaceholder
	}
	if bm.Author == "" {
		bm.Author = core.MetaPlaceholder
	}
	return bm
}

// roundScore 把累计分四舍五入到 3 位小数，作为展示层的边界约定。
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}

// dedupeOrdered 去重并保留首次出现顺序。
func dedupeOrdered(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
