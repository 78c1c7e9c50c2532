package matrix

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// 热门度过滤的默认阈值：交互少于阈值的用户/物品信号太稀疏，只会引入噪声。
const (
	DefaultMinUserRatings = 20
	DefaultMinItemRatings = 10
)

// ErrDataInsufficient 表示过滤后没有剩余交互数据，无法训练。
// 训练侧必须硬失败，不允许静默产出空模型。
var ErrDataInsufficient = core.NewDomainError(
	core.ModuleMatrix,
	core.ErrorCodeDataInsufficient,
	"matrix: no interactions left after filtering",
)

// Options 是矩阵构建参数。零值字段取默认阈值。
type Options struct {
	MinUserRatings int // 用户最少交互数
	MinItemRatings int // 物品最少交互数
}

// RatingMatrix 是训练产物的核心：中心化评分 CSR 矩阵及与之对齐的映射和元数据。
//
// 对齐不变量：ItemIDs[row] 为第 row 行的 ISBN，ItemIndex 为其逆映射，
// Meta 覆盖且仅覆盖保留下来的 ISBN。三者在构建时一次性生成，任何一方
// 单独重排都会静默破坏推荐结果，因此构建后均视为只读。
type RatingMatrix struct {
	CSR *CSR

	ItemIDs   []string       // 行号 -> ISBN
	ItemIndex map[string]int // ISBN -> 行号
	UserIDs   []string       // 列号 -> 用户

	Meta map[string]core.BookMeta // ISBN -> 书目元数据（占位值填充，不为空）
}

// Row 返回给定行的稀疏向量视图。
func (m *RatingMatrix) Row(i int) Vector { return m.CSR.Row(i) }

type cell struct {
	user string
	item string
}

// Build 从长表交互记录构建用户均值中心化的物品 × 用户稀疏矩阵。
//
// 处理顺序（刻意保持，不做"改进"）：
//  1. 与书目表内连接：没有元数据的 ISBN 不进入矩阵
//  2. (用户, 物品) 去重，保留首次出现
//  3. 在去重后的全表上一次性统计用户/物品交互数
//  4. 先按用户阈值、再按物品阈值过滤，单次应用，不迭代到不动点。
//     两个过滤器不可交换：剔除稀疏物品可能让某些用户跌破自身阈值，反之亦然；
//     本实现按预先统计的计数各应用一次，物品计数包含被剔除用户的交互
//  5. 按用户均值中心化；缺失单元格为结构零（中心化后近似"中性"）
//  6. 行按 ISBN 升序、列按用户升序，保证构建确定性
func Build(interactions []core.Interaction, books map[string]core.BookMeta, opts Options) (*RatingMatrix, error) {
	minUser := opts.MinUserRatings
	if minUser <= 0 {
		minUser = DefaultMinUserRatings
	}
	minItem := opts.MinItemRatings
	if minItem <= 0 {
		minItem = DefaultMinItemRatings
	}

	// 1+2. 内连接 + 去重（保留首次出现）
	seen := make(map[cell]struct{}, len(interactions))
	joined := make([]core.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if _, ok := books[in.ItemID]; !ok {
			continue
		}
		c := cell{user: in.UserID, item: in.ItemID}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		joined = append(joined, in)
	}

	// 3. 计数在过滤前一次性统计
	userCount := make(map[string]int)
	itemCount := make(map[string]int)
	for _, in := range joined {
		userCount[in.UserID]++
		itemCount[in.ItemID]++
	}

	// 4. 用户掩码、物品掩码依次应用（计数不重算）
	filtered := joined[:0]
	for _, in := range joined {
		if userCount[in.UserID] < minUser {
			continue
		}
		if itemCount[in.ItemID] < minItem {
			continue
		}
		filtered = append(filtered, in)
	}
	if len(filtered) == 0 {
		return nil, ErrDataInsufficient
	}

	// 5. 用户均值
	userSum := make(map[string]float64)
	userN := make(map[string]int)
	for _, in := range filtered {
		userSum[in.UserID] += in.Rating
		userN[in.UserID]++
	}

	// 6. 行列排序，建立映射
	itemIDs := sortedKeys(func(yield func(string)) {
		for _, in := range filtered {
			yield(in.ItemID)
		}
	})
	userIDs := sortedKeys(func(yield func(string)) {
		for _, in := range filtered {
			yield(in.UserID)
		}
	})

	itemIndex := make(map[string]int, len(itemIDs))
	for i, id := range itemIDs {
		itemIndex[id] = i
	}
	userIndex := make(map[string]int, len(userIDs))
	for i, id := range userIDs {
		userIndex[id] = i
	}

	// 行内按列号聚合中心化评分
	rows := make([]map[int]float64, len(itemIDs))
	for _, in := range filtered {
		r := itemIndex[in.ItemID]
		c := userIndex[in.UserID]
		if rows[r] == nil {
			rows[r] = make(map[int]float64)
		}
		mean := userSum[in.UserID] / float64(userN[in.UserID])
		rows[r][c] = in.Rating - mean
	}

	csr := &CSR{
		Rows:   len(itemIDs),
		Cols:   len(userIDs),
		RowPtr: make([]int, len(itemIDs)+1),
	}
	for r, cols := range rows {
		idx := make([]int, 0, len(cols))
		for c := range cols {
			idx = append(idx, c)
		}
		sort.Ints(idx)
		for _, c := range idx {
			csr.ColIdx = append(csr.ColIdx, c)
			csr.Values = append(csr.Values, cols[c])
		}
		csr.RowPtr[r+1] = len(csr.ColIdx)
	}

	// 元数据只为保留物品解析；内连接保证存在，占位填充作为最后防线
	meta := make(map[string]core.BookMeta, len(itemIDs))
	for _, id := range itemIDs {
		bm, ok := books[id]
		if !ok {
			bm = core.BookMeta{}
		}
		if bm.Title == "" {
			bm.Title = core.MetaPlaceholder
		}
		if bm.Author == "" {
			bm.Author = core.MetaPlaceholder
		}
		meta[id] = bm
	}

	return &RatingMatrix{
		CSR:       csr,
		ItemIDs:   itemIDs,
		ItemIndex: itemIndex,
		UserIDs:   userIDs,
		Meta:      meta,
	}, nil
}

// sortedKeys 收集去重后的 key 并升序返回。
func sortedKeys(each func(yield func(string))) []string {
	set := make(map[string]struct{})
	each(func(s string) { set[s] = struct{}{} })
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
