package train

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/knn"
	"github.com/rushteam/bookrec/matrix"
)

// lockFile 是训练互斥锁文件名。同一工件目录同时只允许一次训练：
// 虽然版本发布本身是原子的，但并发训练会互相覆盖 CURRENT。
const lockFile = "train.lock"

// Result 是一次训练运行的摘要。
type Result struct {
	Version      string
	Interactions int // 去重后的交互数
	Items        int // 保留的物品（矩阵行）数
	Users        int // 保留的用户（矩阵列）数
}

// Trainer 把一次训练运行所需的依赖聚在一起。
// Library / Stats 均可为 nil：前者表示只用外部数据集训练，
// 后者表示不维护热门榜单。
type Trainer struct {
	Config *Config

	// Library 应用侧书架记录源
	Library dataset.LibrarySource

	// Stats 热门榜单写入目标
	Stats core.KeyValueStore
}

// Run 执行完整的离线训练：抽取 -> 构建 -> 拟合 -> 发布。
// 运行到底或整体失败，没有部分成功状态；过滤后数据不足时
// 返回 DATA_INSUFFICIENT 硬错误，绝不发布空模型。
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	cfg := t.Config

	if err := os.MkdirAll(cfg.Artifacts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("train: create artifact dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.Artifacts.Dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("train: acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("train: another training run holds the lock at %s", cfg.Artifacts.Dir)
	}
	defer lock.Unlock()

	// 1. 外部数据集
	books, err := dataset.LoadBooks(cfg.Data.BooksCSV)
	if err != nil {
		return nil, err
	}
	if cfg.Data.ExtraBooksCSV != "" {
		if _, err := os.Stat(cfg.Data.ExtraBooksCSV); err == nil {
			extra, err := dataset.LoadBooks(cfg.Data.ExtraBooksCSV, dataset.WithUTF8())
			if err != nil {
				return nil, err
			}
			books = dataset.MergeBooks(books, extra)
		}
	}
	external, err := dataset.LoadRatings(cfg.Data.RatingsCSV)
	if err != nil {
		return nil, err
	}

	// 2. 应用侧记录
	var app []core.Interaction
	if t.Library != nil {
		ex := &dataset.Extractor{
			States:        cfg.StateRatings(),
			ExplicitScale: cfg.Ratings.ExplicitScale,
			ExplicitMin:   cfg.Ratings.ExplicitMin,
		}
		app, err = ex.AppInteractions(ctx, t.Library)
		if err != nil {
			return nil, err
		}
	}

	// 3. 合并去重（外部在前：同一对出现时保留首次）
	merged := dataset.Merge(external, app)

	// 4. 构建中心化矩阵
	rm, err := matrix.Build(merged, books, matrix.Options{
		MinUserRatings: cfg.Filter.MinUserRatings,
		MinItemRatings: cfg.Filter.MinItemRatings,
	})
	if err != nil {
		return nil, err
	}

	// 5. 拟合索引并发布版本
	idx := knn.Build(rm.CSR)
	bundle := artifact.NewBundle(rm, idx, cfg.Model.Neighbors, time.Now())
	version, err := artifact.Save(cfg.Artifacts.Dir, bundle)
	if err != nil {
		return nil, err
	}

	// 6. 热门榜单（尽力而为，失败不回滚已发布的版本）
	if t.Stats != nil {
		t.writePopular(ctx, merged, rm)
	}

	return &Result{
		Version:      version,
		Interactions: len(merged),
		Items:        rm.CSR.Rows,
		Users:        rm.CSR.Cols,
	}, nil
}

// writePopular 把保留物品的交互计数写入热门榜单 zset。
func (t *Trainer) writePopular(ctx context.Context, merged []core.Interaction, rm *matrix.RatingMatrix) {
	key := t.Config.Artifacts.PopularKey
	if key == "" {
		key = "bookrec:popular"
	}
	for isbn, count := range dataset.ItemCounts(merged) {
		if _, ok := rm.ItemIndex[isbn]; !ok {
			continue // 只收录进入模型的物品
		}
		_ = t.Stats.ZAdd(ctx, key, float64(count), isbn)
	}
}
