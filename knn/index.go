// Package knn 提供物品行向量上的最近邻索引。
//
// 设计要点：
//   - 接口与实现分离：build(matrix) -> Index，query(Index, vector, k) -> 有序邻居，
//     暴力余弦检索之后可替换为近似索引，聚合层无需改动
//   - 暴力（brute）检索：不做降维，直接在稀疏物品向量上算精确余弦距离，
//     用索引构建速度换取精确性
//   - 构建是矩阵的纯确定性函数：无随机性、无增量更新，重训永远从全量矩阵开始
package knn

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/matrix"
)

// Neighbor 是一次查询返回的单个邻居：行号 + 余弦距离，距离越小越相似。
// 查询向量本身若在索引中也会出现在结果里（距离 0），由调用方过滤自匹配。
type Neighbor struct {
	Row      int
	Distance float64
}

// Index 回答"与给定向量最近的 k 个物品行"。
type Index interface {
	// Rows 返回索引中的行数
	Rows() int

	// Query 返回与 vec 余弦距离最小的 k 行，近者在前。
	// k 大于行数时收窄到行数；相同距离按行号稳定排序，保证确定性。
	Query(vec matrix.Vector, k int) []Neighbor
}

// BruteIndex 是 Index 的暴力精确实现：持有矩阵引用和预计算的行范数。
// 构建后不可变，可在并发查询间安全共享。
type BruteIndex struct {
	m     *matrix.CSR
	norms []float64
}

var _ Index = (*BruteIndex)(nil)

// Build 对矩阵的每一行预计算 L2 范数，返回不可变索引。
// 范数计算按 CPU 数分片并行，结果与串行一致。
func Build(m *matrix.CSR) *BruteIndex {
	norms := make([]float64, m.Rows)

	workers := runtime.NumCPU()
	if workers > m.Rows {
		workers = m.Rows
	}
	if workers <= 1 {
		for i := 0; i < m.Rows; i++ {
			norms[i] = m.Row(i).Norm()
		}
		return &BruteIndex{m: m, norms: norms}
	}

	var eg errgroup.Group
	chunk := (m.Rows + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > m.Rows {
			hi = m.Rows
		}
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				norms[i] = m.Row(i).Norm()
			}
			return nil
		})
	}
	_ = eg.Wait() // worker 不返回错误

	return &BruteIndex{m: m, norms: norms}
}

// Restore 用持久化的行范数重建索引，跳过重算，保证加载后输出逐字节一致。
// norms 长度必须等于矩阵行数，由工件层校验。
func Restore(m *matrix.CSR, norms []float64) *BruteIndex {
	return &BruteIndex{m: m, norms: norms}
}

// Rows 返回索引中的行数。
func (x *BruteIndex) Rows() int { return x.m.Rows }

// Norms 返回预计算的行范数（供工件持久化；调用方不得修改）。
func (x *BruteIndex) Norms() []float64 { return x.norms }

// Query 对索引中的全部行计算精确余弦距离 1 - dot/(‖a‖·‖b‖)，升序返回前 k 个。
// 零范数行（或零范数查询向量）的夹角无定义，距离记为 1（相似度 0）。
func (x *BruteIndex) Query(vec matrix.Vector, k int) []Neighbor {
	if k <= 0 || x.m.Rows == 0 {
		return nil
	}
	if k > x.m.Rows {
		k = x.m.Rows
	}

	qnorm := vec.Norm()
	all := make([]Neighbor, x.m.Rows)
	for i := 0; i < x.m.Rows; i++ {
		d := 1.0
		if qnorm > 0 && x.norms[i] > 0 {
			d = 1.0 - vec.Dot(x.m.Row(i))/(qnorm*x.norms[i])
		}
		all[i] = Neighbor{Row: i, Distance: d}
	}

	// 稳定排序：距离相同按行号，输出确定
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Distance < all[j].Distance
	})
	return all[:k]
}
