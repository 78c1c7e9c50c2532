package dataset

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
)

// 显式评分换算的默认值：应用内日记用 0–5 分，外部数据集用 1–10 分。
// 乘 2 对齐刻度；下限压到 1，"打了分但给 0.5 分"仍是信号，不能当无信号丢掉。
const (
	DefaultExplicitScale = 2.0
	DefaultExplicitMin   = 1.0
	DefaultUserPrefix    = "app_"
)

// DefaultStateRatings 是阅读状态到隐式评分的固定映射。
// pending 不在表里：仅标记"想读"不构成评分信号。
var DefaultStateRatings = map[core.ReadingState]float64{
	core.StateStarted:    6,
	core.StateInProgress: 7,
	core.StateFinished:   9,
	core.StateAbandoned:  3,
}

// Extractor 把应用侧书架/日记记录转换成长表交互记录。
//
// 规则：
//   - 显式评分（日记 0–5 分）按 ExplicitScale 换算并压到下限 ExplicitMin
//   - 没有显式评分时按阅读状态查表推断；映射到 0 或负数的状态视为无信号，剔除
//   - 同一 (用户, 物品)：显式评分永远压过推断评分
//   - 没有 ISBN 的记录直接丢弃，无法关联的信号没有意义
//   - 应用用户 ID 加前缀隔离，避免与外部数据集的用户 ID 撞号
type Extractor struct {
	// States 阅读状态 -> 隐式评分映射，nil 时取 DefaultStateRatings
	States map[core.ReadingState]float64

	// ExplicitScale 显式评分换算倍数，<=0 时取默认 2
	ExplicitScale float64

	// ExplicitMin 换算后的评分下限，<=0 时取默认 1
	ExplicitMin float64

	// UserPrefix 应用用户 ID 前缀，空时取默认 "app_"
	UserPrefix string
}

func (e *Extractor) states() map[core.ReadingState]float64 {
	if e.States != nil {
		return e.States
	}
	return DefaultStateRatings
}

func (e *Extractor) scale() float64 {
	if e.ExplicitScale > 0 {
		return e.ExplicitScale
	}
	return DefaultExplicitScale
}

func (e *Extractor) min() float64 {
	if e.ExplicitMin > 0 {
		return e.ExplicitMin
	}
	return DefaultExplicitMin
}

func (e *Extractor) prefix() string {
	if e.UserPrefix != "" {
		return e.UserPrefix
	}
	return DefaultUserPrefix
}

// AppInteractions 抽取全部应用用户的交互记录。
// 用户间的存储读取并发执行；输出顺序跟随用户列表顺序，保证确定性。
func (e *Extractor) AppInteractions(ctx context.Context, src LibrarySource) ([]core.Interaction, error) {
	users, err := src.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	perUser := make([][]core.Interaction, len(users))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, userID := range users {
		i, userID := i, userID
		eg.Go(func() error {
			records, err := src.UserRecords(egCtx, userID)
			if err != nil {
				return err
			}
			perUser[i] = e.UserInteractions(userID, records)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []core.Interaction
	for _, batch := range perUser {
		out = append(out, batch...)
	}
	return out, nil
}

// UserInteractions 把单个用户的书架记录转换成交互记录。
// 显式评分先收集，状态推断只填补没有显式评分的 (用户, 物品) 对。
func (e *Extractor) UserInteractions(userID string, records []core.LibraryRecord) []core.Interaction {
	appUser := e.prefix() + userID

	var out []core.Interaction
	rated := make(map[string]struct{}, len(records))

	// 第一遍：显式评分优先
	for _, rec := range records {
		isbn := strings.TrimSpace(rec.ISBN)
		if isbn == "" || rec.Rating <= 0 {
			continue
		}
		if _, ok := rated[isbn]; ok {
			continue
		}
		score := math.Trunc(rec.Rating * e.scale())
		if score < e.min() {
			score = e.min()
		}
		rated[isbn] = struct{}{}
		out = append(out, core.Interaction{
			UserID:     appUser,
			ItemID:     isbn,
			Rating:     score,
			Provenance: core.ProvenanceJournal,
		})
	}

	// 第二遍：状态推断补位
	states := e.states()
	for _, rec := range records {
		isbn := strings.TrimSpace(rec.ISBN)
		if isbn == "" {
			continue
		}
		if _, ok := rated[isbn]; ok {
			continue
		}
		score, ok := states[rec.State]
		if !ok || score <= 0 {
			continue // pending 等状态：无信号
		}
		rated[isbn] = struct{}{}
		out = append(out, core.Interaction{
			UserID:     appUser,
			ItemID:     isbn,
			Rating:     score,
			Provenance: core.ProvenanceState,
		})
	}

	return out
}

// Merge 合并多批交互记录并按 (用户, 物品) 去重，保留首次出现。
// 调用方按优先级传入批次（通常是外部数据集在前、应用记录在后）。
func Merge(batches ...[]core.Interaction) []core.Interaction {
	type pair struct{ user, item string }

	total := 0
	for _, b := range batches {
		total += len(b)
	}
	seen := make(map[pair]struct{}, total)
	out := make([]core.Interaction, 0, total)
	for _, batch := range batches {
		for _, in := range batch {
			if in.ItemID == "" {
				continue
			}
			p := pair{user: in.UserID, item: in.ItemID}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, in)
		}
	}
	return out
}

// ItemCounts 统计每个物品的交互次数（训练期写入热门榜单用）。
func ItemCounts(interactions []core.Interaction) map[string]int {
	counts := make(map[string]int)
	for _, in := range interactions {
		counts[in.ItemID]++
	}
	return counts
}
