package recommend

import (
	"context"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
)

// PopularKey 是热门榜单在 KeyValueStore 中的默认 key。
// 训练期按物品交互计数写入（ZAdd），这里按分数降序读出。
const PopularKey = "bookrec:popular"

// PopularItems 返回交互量最高的至多 n 本书，作为无信号用户的冷启动兜底。
// 注意这不是个性化结果：展示层应与 ErrNoSignal 空态配合使用。
func PopularItems(ctx context.Context, kv core.KeyValueStore, b *artifact.Bundle, key string, n int) ([]Recommendation, error) {
	if key == "" {
		key = PopularKey
	}
	if n <= 0 {
		n = DefaultTopN
	}

	members, err := kv.ZRange(ctx, key, 0, int64(n-1))
	if err != nil {
		if core.IsStoreNotFound(err) || core.IsStoreNotSupported(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]Recommendation, 0, len(members))
	for _, isbn := range members {
		score, err := kv.ZScore(ctx, key, isbn)
		if err != nil {
			score = 0
		}
		out = append(out, Recommendation{
			ISBN:   isbn,
			Title:  resolveMeta(b, isbn).Title,
			Author: resolveMeta(b, isbn).Author,
			Score:  score,
		})
	}
	return out, nil
}
