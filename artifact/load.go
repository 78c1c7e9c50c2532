package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/knn"
)

// errMissing / errCorrupt 构造带上下文的工件错误，保持统一的 DomainError 代码。
// 查询路径的加载失败是致命的（服务不可用），不得被掩盖。

func errMissing(format string, args ...any) error {
	return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeArtifactMissing,
		fmt.Sprintf("artifact: "+format, args...))
}

func errCorrupt(format string, args ...any) error {
	return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeArtifactCorrupt,
		fmt.Sprintf("artifact: "+format, args...))
}

// Load 读取 CURRENT 指向的版本。
// 目录或 CURRENT 不存在 -> ARTIFACT_MISSING；内容解析/对齐失败 -> ARTIFACT_CORRUPT。
func Load(dir string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Join(dir, currentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errMissing("no trained bundle at %s", dir)
		}
		return nil, fmt.Errorf("artifact: read current: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return nil, errCorrupt("empty CURRENT pointer at %s", dir)
	}
	return LoadVersion(dir, version)
}

// LoadVersion 读取指定版本目录并做对齐校验。
func LoadVersion(dir, version string) (*Bundle, error) {
	vdir := filepath.Join(dir, version)
	if _, err := os.Stat(vdir); err != nil {
		if os.IsNotExist(err) {
			return nil, errMissing("version %s not found at %s", version, dir)
		}
		return nil, fmt.Errorf("artifact: stat version: %w", err)
	}

	var model modelPayload
	if err := readJSON(filepath.Join(vdir, modelFile), &model); err != nil {
		return nil, err
	}
	var mappings mappingsPayload
	if err := readJSON(filepath.Join(vdir, mappingsFile), &mappings); err != nil {
		return nil, err
	}
	meta := make(map[string]core.BookMeta)
	if err := readJSON(filepath.Join(vdir, metaFile), &meta); err != nil {
		return nil, err
	}
	var mp matrixPayload
	if err := readJSON(filepath.Join(vdir, matrixFile), &mp); err != nil {
		return nil, err
	}

	// 对齐校验：行序、映射、范数、元数据必须按构建时的顺序严格一致，
	// 任何一方错位都会静默污染推荐结果，宁可拒绝加载。
	if mp.Matrix == nil {
		return nil, errCorrupt("version %s: missing matrix", version)
	}
	if err := mp.Matrix.Validate(); err != nil {
		return nil, errCorrupt("version %s: %v", version, err)
	}
	if len(mappings.ItemIDs) != mp.Matrix.Rows {
		return nil, errCorrupt("version %s: %d item ids for %d rows", version, len(mappings.ItemIDs), mp.Matrix.Rows)
	}
	if len(mp.UserIDs) != mp.Matrix.Cols {
		return nil, errCorrupt("version %s: %d user ids for %d cols", version, len(mp.UserIDs), mp.Matrix.Cols)
	}
	if len(model.Norms) != mp.Matrix.Rows {
		return nil, errCorrupt("version %s: %d norms for %d rows", version, len(model.Norms), mp.Matrix.Rows)
	}
	if len(mappings.ItemIndex) != len(mappings.ItemIDs) {
		return nil, errCorrupt("version %s: item index size mismatch", version)
	}
	for row, id := range mappings.ItemIDs {
		if got, ok := mappings.ItemIndex[id]; !ok || got != row {
			return nil, errCorrupt("version %s: item index misaligned at row %d", version, row)
		}
	}

	return &Bundle{
		Version:   version,
		TrainedAt: model.TrainedAt,
		Matrix:    mp.Matrix,
		UserIDs:   mp.UserIDs,
		ItemIDs:   mappings.ItemIDs,
		ItemIndex: mappings.ItemIndex,
		Meta:      meta,
		Index:     knn.Restore(mp.Matrix, model.Norms),
		Neighbors: model.Neighbors,
	}, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errMissing("missing file %s", filepath.Base(path))
		}
		return fmt.Errorf("artifact: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errCorrupt("decode %s: %v", filepath.Base(path), err)
	}
	return nil
}
