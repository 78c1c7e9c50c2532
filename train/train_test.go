package train

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/recommend"
	"github.com/rushteam/bookrec/store"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestTrainerRun 端到端训练：CSV + 应用书架 -> 工件 -> 可查询
func TestTrainerRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	booksCSV := writeFile(t, dir, "books.csv",
		"ISBN;Book-Title;Book-Author\n"+
			"A;Alpha;Author One\n"+
			"B;Beta;Author Two\n"+
			"C;Gamma;Author Three\n")
	ratingsCSV := writeFile(t, dir, "ratings.csv",
		"User-ID;ISBN;Book-Rating\n"+
			"ext1;A;9\n"+
			"ext1;B;8\n"+
			"ext1;C;2\n"+
			"ext2;A;8\n"+
			"ext2;B;9\n")

	ms := store.NewMemoryStore()
	defer ms.Close()
	src := dataset.NewStoreLibrarySource(ms, "")
	if err := src.SaveRecord(ctx, "ana", core.LibraryRecord{ISBN: "A", Rating: 4}); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	cfg.Data.BooksCSV = booksCSV
	cfg.Data.RatingsCSV = ratingsCSV
	cfg.Filter.MinUserRatings = 1
	cfg.Filter.MinItemRatings = 1
	cfg.Model.Neighbors = 10
	cfg.Artifacts.Dir = filepath.Join(dir, "artifacts")

	trainer := &Trainer{Config: cfg, Library: src, Stats: ms}
	res, err := trainer.Run(ctx)
	if err != nil {
		t.Fatalf("Run() 失败: %v", err)
	}
	if res.Interactions != 6 || res.Items != 3 || res.Users != 3 {
		t.Errorf("训练摘要 = %+v, 期望 6 条交互 / 3 物品 / 3 用户", res)
	}

	// 发布的工件可直接加载并查询
	h, err := artifact.Open(cfg.Artifacts.Dir)
	if err != nil {
		t.Fatalf("Open() 失败: %v", err)
	}
	if h.Version() != res.Version {
		t.Errorf("CURRENT 版本 = %q, 期望 %q", h.Version(), res.Version)
	}

	rec := &recommend.Recommender{Handle: h}
	got, err := rec.RecommendForUser(ctx, []string{"A"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	// ext1/ext2 都同时高分评了 A 和 B，B 是唯一的正相似候选；
	// C 只被 ext1 低分评过，与 A 负相关，被正相似门槛剔除
	if len(got) != 1 || got[0].ISBN != "B" {
		t.Fatalf("推荐结果 = %+v, 期望 [B]", got)
	}
	if got[0].Title != "Beta" || got[0].Author != "Author Two" {
		t.Errorf("元数据错误: %+v", got[0])
	}

	// 热门榜单：A 的交互计数最高（ext1 + ext2 + app_ana）
	popular, err := recommend.PopularItems(ctx, ms, h.Bundle(), "", 2)
	if err != nil {
		t.Fatalf("PopularItems() 失败: %v", err)
	}
	if len(popular) != 2 || popular[0].ISBN != "A" || popular[0].Score != 3 {
		t.Errorf("热门榜单 = %+v, 期望 A 居首且计数 3", popular)
	}
}

// TestTrainerRunDataInsufficient 过滤后没有数据时硬失败，不发布任何版本
func TestTrainerRunDataInsufficient(t *testing.T) {
	dir := t.TempDir()
	booksCSV := writeFile(t, dir, "books.csv",
		"ISBN;Book-Title;Book-Author\nA;Alpha;Author One\n")
	ratingsCSV := writeFile(t, dir, "ratings.csv",
		"User-ID;ISBN;Book-Rating\next1;A;9\n")

	cfg := &Config{}
	cfg.Data.BooksCSV = booksCSV
	cfg.Data.RatingsCSV = ratingsCSV
	// 默认阈值（20/10）远高于单条交互
	cfg.Artifacts.Dir = filepath.Join(dir, "artifacts")

	_, err := (&Trainer{Config: cfg}).Run(context.Background())
	if !core.IsDataInsufficient(err) {
		t.Fatalf("期望 DATA_INSUFFICIENT: %v", err)
	}

	if _, err := artifact.Load(cfg.Artifacts.Dir); !core.IsArtifactMissing(err) {
		t.Errorf("失败的训练不应发布版本: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "train.yaml", `
data:
  books_csv: books.csv
  ratings_csv: ratings.csv
ratings:
  explicit_scale: 2
  states:
    finished: 10
filter:
  min_user_ratings: 5
  min_item_ratings: 3
model:
  neighbors: 20
artifacts:
  dir: /tmp/artifacts
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() 失败: %v", err)
	}
	if cfg.Filter.MinUserRatings != 5 || cfg.Model.Neighbors != 20 {
		t.Errorf("配置解析错误: %+v", cfg)
	}
	states := cfg.StateRatings()
	if states[core.StateFinished] != 10 {
		t.Errorf("状态映射转换错误: %v", states)
	}

	missing := writeFile(t, dir, "bad.yaml", "data:\n  books_csv: x.csv\n")
	if _, err := LoadConfig(missing); err == nil {
		t.Error("缺必填字段应失败")
	}
}
