package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/bookrec/core"
)

func TestMemoryStoreKV(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() 失败: %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() 失败: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("删除后应返回 not found: %v", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() 失败: %v", err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() 失败: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}

// TestMemoryStoreZSet 验证热门榜单语义：分数降序，同分按成员升序
func TestMemoryStoreZSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	seed := []struct {
		member string
		score  float64
	}{
		{"b", 10}, {"a", 30}, {"d", 20}, {"c", 20},
	}
	for _, s := range seed {
		if err := ms.ZAdd(ctx, "pop", s.score, s.member); err != nil {
			t.Fatalf("ZAdd() 失败: %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "pop", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() 失败: %v", err)
	}
	want := []string{"a", "c", "d", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZRange() = %v, 期望 %v", got, want)
	}

	top2, err := ms.ZRange(ctx, "pop", 0, 1)
	if err != nil {
		t.Fatalf("ZRange() 失败: %v", err)
	}
	if !reflect.DeepEqual(top2, []string{"a", "c"}) {
		t.Errorf("ZRange(0,1) = %v, 期望 [a c]", top2)
	}

	score, err := ms.ZScore(ctx, "pop", "a")
	if err != nil || score != 30 {
		t.Errorf("ZScore() = %v, %v", score, err)
	}
	if _, err := ms.ZScore(ctx, "pop", "zzz"); !core.IsStoreNotFound(err) {
		t.Errorf("缺失成员应返回 not found: %v", err)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.HSet(ctx, "h", "f1", []byte("v1")); err != nil {
		t.Fatalf("HSet() 失败: %v", err)
	}
	if err := ms.HSet(ctx, "h", "f2", []byte("v2")); err != nil {
		t.Fatalf("HSet() 失败: %v", err)
	}

	got, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("HGet() = %q, %v", got, err)
	}
	if _, err := ms.HGet(ctx, "h", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("缺失字段应返回 not found: %v", err)
	}

	all, err := ms.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll() 失败: %v", err)
	}
	if len(all) != 2 || string(all["f2"]) != "v2" {
		t.Errorf("HGetAll() = %v", all)
	}
}
