// Package artifact 负责训练产物的持久化与加载。
//
// 目录布局：
//
//	<dir>/
//	  CURRENT            # 当前生效版本名（rename 原子替换）
//	  v<unix-nano>/      # 单次训练的版本目录
//	    model.json       # 索引参数：度量、算法、行范数、默认邻域宽度
//	    mappings.json    # ISBN <-> 行号双向映射
//	    book_meta.json   # 书目元数据表
//	    matrix.json      # 中心化 CSR 矩阵 + 用户列映射
//
// 写入顺序：先把完整版本目录写到临时名再 rename，最后 rename 替换 CURRENT；
// 查询侧任何时刻读到的都是完整 bundle，训练成功前旧版本保持生效。
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/knn"
	"github.com/rushteam/bookrec/matrix"
)

const (
	currentFile  = "CURRENT"
	modelFile    = "model.json"
	mappingsFile = "mappings.json"
	metaFile     = "book_meta.json"
	matrixFile   = "matrix.json"
)

// Bundle 是查询服务所需的最小持久化状态：索引 + 映射 + 元数据 + 矩阵。
// 一次训练成功后整体替换，加载后只读；热更新通过 Handle 换引用，不原地修改。
type Bundle struct {
	Version   string
	TrainedAt time.Time

	Matrix  *matrix.CSR
	UserIDs []string // 列号 -> 用户

	ItemIDs   []string       // 行号 -> ISBN
	ItemIndex map[string]int // ISBN -> 行号

	Meta map[string]core.BookMeta

	Index     *knn.BruteIndex
	Neighbors int // 训练时的默认邻域宽度 k
}

// NewBundle 从训练产物组装 Bundle。
func NewBundle(rm *matrix.RatingMatrix, idx *knn.BruteIndex, neighbors int, trainedAt time.Time) *Bundle {
	return &Bundle{
		TrainedAt: trainedAt,
		Matrix:    rm.CSR,
		UserIDs:   rm.UserIDs,
		ItemIDs:   rm.ItemIDs,
		ItemIndex: rm.ItemIndex,
		Meta:      rm.Meta,
		Index:     idx,
		Neighbors: neighbors,
	}
}

// 持久化文件的载荷结构

type modelPayload struct {
	Metric    string    `json:"metric"`    // "cosine"
	Algorithm string    `json:"algorithm"` // "brute"
	Neighbors int       `json:"neighbors"`
	TrainedAt time.Time `json:"trained_at"`
	Norms     []float64 `json:"norms"` // 预计算行范数，与矩阵行对齐
}

type mappingsPayload struct {
	ItemIDs   []string       `json:"item_ids"`
	ItemIndex map[string]int `json:"item_index"`
}

type matrixPayload struct {
	Matrix  *matrix.CSR `json:"matrix"`
	UserIDs []string    `json:"user_ids"`
}

// Save 把 bundle 写成一个新的版本目录并原子切换 CURRENT，返回版本名。
// 同一目录的并发训练由上层（train 包的文件锁）排除。
func Save(dir string, b *Bundle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact: create dir: %w", err)
	}

	trainedAt := b.TrainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now()
	}
	version := fmt.Sprintf("v%d", trainedAt.UTC().UnixNano())

	tmp := filepath.Join(dir, ".tmp-"+version)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return "", fmt.Errorf("artifact: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp) // rename 成功后已不存在，失败时清理

	files := map[string]any{
		modelFile: &modelPayload{
			Metric:    "cosine",
			Algorithm: "brute",
			Neighbors: b.Neighbors,
			TrainedAt: trainedAt.UTC(),
			Norms:     b.Index.Norms(),
		},
		mappingsFile: &mappingsPayload{
			ItemIDs:   b.ItemIDs,
			ItemIndex: b.ItemIndex,
		},
		metaFile:   b.Meta,
		matrixFile: &matrixPayload{Matrix: b.Matrix, UserIDs: b.UserIDs},
	}
	for name, payload := range files {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("artifact: encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(tmp, name), data, 0o644); err != nil {
			return "", fmt.Errorf("artifact: write %s: %w", name, err)
		}
	}

	if err := os.Rename(tmp, filepath.Join(dir, version)); err != nil {
		return "", fmt.Errorf("artifact: publish version: %w", err)
	}
	if err := swapCurrent(dir, version); err != nil {
		return "", err
	}

	b.Version = version
	b.TrainedAt = trainedAt
	return version, nil
}

// swapCurrent 以 write-temp-then-rename 原子更新 CURRENT 指针。
func swapCurrent(dir, version string) error {
	tmp := filepath.Join(dir, currentFile+".tmp")
	if err := os.WriteFile(tmp, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("artifact: write current: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, currentFile)); err != nil {
		return fmt.Errorf("artifact: swap current: %w", err)
	}
	return nil
}
