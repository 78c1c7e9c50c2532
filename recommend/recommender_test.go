package recommend

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/bookrec/artifact"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/knn"
	"github.com/rushteam/bookrec/matrix"
)

// simBundle 构造一个三物品的 bundle，向量设计成整齐的余弦相似度：
//
//	A = (0.6, 0.8, 0)        sim(A,C) = 0.6  sim(A,B) = 0.24
//	B = (0.4, 0, sqrt(0.84)) sim(B,C) = 0.4
//	C = (1, 0, 0)
//
// 三个向量都是单位向量，点积即余弦相似度。
func simBundle() *artifact.Bundle {
	m := &matrix.CSR{
		Rows:   3,
		Cols:   3,
		RowPtr: []int{0, 2, 4, 5},
		ColIdx: []int{0, 1, 0, 2, 0},
		Values: []float64{0.6, 0.8, 0.4, math.Sqrt(0.84), 1},
	}
	return &artifact.Bundle{
		Version:   "v1",
		TrainedAt: time.Now(),
		Matrix:    m,
		UserIDs:   []string{"u1", "u2", "u3"},
		ItemIDs:   []string{"A", "B", "C"},
		ItemIndex: map[string]int{"A": 0, "B": 1, "C": 2},
		Meta: map[string]core.BookMeta{
			"A": {Title: "Nada", Author: "Carmen Laforet"},
			"B": {Title: "Rayuela", Author: "Julio Cortázar"},
			"C": {Title: "Ficciones", Author: ""}, // 作者缺失，应填占位值
		},
		Index:     knn.Build(m),
		Neighbors: 2,
	}
}

func simRecommender() *Recommender {
	return &Recommender{Handle: artifact.NewHandle(simBundle())}
}

// TestAggregateAdditive 验证相似度累加：C 同时与 A(0.6)、B(0.4) 相似，
// 累计分是 1.0，不是均值 0.5 也不是最大值 0.6
func TestAggregateAdditive(t *testing.T) {
	got, err := simRecommender().RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("返回 %d 条，期望 1: %+v", len(got), got)
	}
	if got[0].ISBN != "C" {
		t.Fatalf("推荐了 %s，期望 C", got[0].ISBN)
	}
	if got[0].Score != 1.0 {
		t.Errorf("累计分 = %v, 期望 1.0（0.6 + 0.4 四舍五入到 3 位）", got[0].Score)
	}
	if got[0].Title != "Ficciones" || got[0].Author != core.MetaPlaceholder {
		t.Errorf("元数据解析错误: %+v", got[0])
	}
}

// TestRecommendRanking 验证排序、自身排除与已知书目排除
func TestRecommendRanking(t *testing.T) {
	got, err := simRecommender().RecommendForUser(context.Background(), []string{"A"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("返回 %d 条，期望 2: %+v", len(got), got)
	}
	if got[0].ISBN != "C" || got[1].ISBN != "B" {
		t.Fatalf("排序错误: %+v", got)
	}
	if got[0].Score != 0.6 || got[1].Score != 0.24 {
		t.Errorf("分数错误: %v %v, 期望 0.6 0.24", got[0].Score, got[1].Score)
	}
	for _, r := range got {
		if r.ISBN == "A" {
			t.Errorf("已知书目出现在推荐里: %+v", r)
		}
	}
}

func TestRecommendTopN(t *testing.T) {
	got, err := simRecommender().RecommendForUser(context.Background(), []string{"A"}, 1, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	if len(got) != 1 || got[0].ISBN != "C" {
		t.Fatalf("topN=1 应只保留最高分: %+v", got)
	}
}

// TestRecommendNoSignal 已知书目全部未命中索引映射时返回 NO_SIGNAL
func TestRecommendNoSignal(t *testing.T) {
	_, err := simRecommender().RecommendForUser(context.Background(), []string{"zzz", "yyy"}, 0, 0)
	if err == nil {
		t.Fatal("期望 NO_SIGNAL 错误，实际成功")
	}
	if !core.IsNoSignal(err) {
		t.Errorf("错误类型不对: %v", err)
	}

	_, err = simRecommender().RecommendForUser(context.Background(), nil, 0, 0)
	if !core.IsNoSignal(err) {
		t.Errorf("空已知集合应返回 NO_SIGNAL: %v", err)
	}
}

// TestRecommendUnknownItemSkipped 未命中的单个 ISBN 静默跳过，残余信号照常使用
func TestRecommendUnknownItemSkipped(t *testing.T) {
	rec := simRecommender()
	withUnknown, err := rec.RecommendForUser(context.Background(), []string{"A", "zzz"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	onlyKnown, err := rec.RecommendForUser(context.Background(), []string{"A"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	if !reflect.DeepEqual(withUnknown, onlyKnown) {
		t.Errorf("携带未知 ISBN 的结果不一致: %+v vs %+v", withUnknown, onlyKnown)
	}
}

// TestRecommendEmptyNotNoSignal 有信号但没有正相似度候选时，
// 返回空列表 + nil error，与 NO_SIGNAL 区分。
//
// 数据是中心化参考矩阵：i1 与 i2/i3 的相似度为负，与 i4 为 0，
// 全部低于正相似度门槛。
func TestRecommendEmptyNotNoSignal(t *testing.T) {
	interactions := []core.Interaction{
		{UserID: "u1", ItemID: "i1", Rating: 5}, {UserID: "u1", ItemID: "i2", Rating: 3},
		{UserID: "u2", ItemID: "i1", Rating: 4}, {UserID: "u2", ItemID: "i3", Rating: 5},
		{UserID: "u3", ItemID: "i2", Rating: 2}, {UserID: "u3", ItemID: "i4", Rating: 4},
	}
	books := map[string]core.BookMeta{
		"i1": {Title: "t1", Author: "a1"}, "i2": {Title: "t2", Author: "a2"},
		"i3": {Title: "t3", Author: "a3"}, "i4": {Title: "t4", Author: "a4"},
	}
	rm, err := matrix.Build(interactions, books, matrix.Options{MinUserRatings: 1, MinItemRatings: 1})
	if err != nil {
		t.Fatalf("Build() 失败: %v", err)
	}
	b := artifact.NewBundle(rm, knn.Build(rm.CSR), 10, time.Now())
	rec := &Recommender{Handle: artifact.NewHandle(b)}

	got, err := rec.RecommendForUser(context.Background(), []string{"i1"}, 0, 0)
	if err != nil {
		t.Fatalf("期望空列表 + nil error，实际错误: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("期望空列表，实际 %+v", got)
	}
}

// TestRecommendDeterministic 重复查询输出逐项一致
func TestRecommendDeterministic(t *testing.T) {
	rec := simRecommender()
	first, err := rec.RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := rec.RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
		if err != nil {
			t.Fatalf("第 %d 次查询失败: %v", i, err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("第 %d 次查询结果不一致: %+v vs %+v", i, again, first)
		}
	}
}

// TestRecommendKnownDeduped 已知列表重复项不会重复计分
func TestRecommendKnownDeduped(t *testing.T) {
	rec := simRecommender()
	duped, err := rec.RecommendForUser(context.Background(), []string{"A", "A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	plain, err := rec.RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("RecommendForUser() 失败: %v", err)
	}
	if !reflect.DeepEqual(duped, plain) {
		t.Errorf("重复已知项改变了结果: %+v vs %+v", duped, plain)
	}
}

// TestRecommendRoundTrip 保存再加载后推荐输出逐字节一致
func TestRecommendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := simBundle()
	if _, err := artifact.Save(dir, b); err != nil {
		t.Fatalf("Save() 失败: %v", err)
	}

	before, err := (&Recommender{Handle: artifact.NewHandle(b)}).
		RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("保存前查询失败: %v", err)
	}

	h, err := artifact.Open(dir)
	if err != nil {
		t.Fatalf("Open() 失败: %v", err)
	}
	after, err := (&Recommender{Handle: h}).
		RecommendForUser(context.Background(), []string{"A", "B"}, 0, 0)
	if err != nil {
		t.Fatalf("加载后查询失败: %v", err)
	}

	if !reflect.DeepEqual(before, after) {
		t.Errorf("加载前后结果不一致:\n前: %+v\n后: %+v", before, after)
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.6 + 0.4, 1.0},
		{0.2345, 0.235},
		{0.2344, 0.234},
		{1.9995, 2.0},
	}
	for _, tt := range tests {
		if got := roundScore(tt.in); got != tt.want {
			t.Errorf("roundScore(%v) = %v, 期望 %v", tt.in, got, tt.want)
		}
	}
}

func TestDedupeOrdered(t *testing.T) {
	got := dedupeOrdered([]string{"b", "a", "b", "", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("dedupeOrdered() = %v", got)
	}
}
