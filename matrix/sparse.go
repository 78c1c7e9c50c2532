// Package matrix 提供评分矩阵的构建与稀疏表示。
//
// 设计要点：
//   - CSR（压缩稀疏行）表示物品 × 用户的中心化评分矩阵
//   - 缺失单元格即结构零：中心化之后，零近似"中性评分"（已知的近似，刻意保留）
//   - 行序、ISBN ↔ 行号映射、元数据表在构建时即对齐，之后只读
package matrix

import (
	"fmt"
	"math"
)

// CSR 是压缩稀疏行矩阵。
// RowPtr 长度为 Rows+1；第 i 行的非零元位于 [RowPtr[i], RowPtr[i+1])。
// 每行内 ColIdx 严格递增。
type CSR struct {
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	RowPtr []int     `json:"row_ptr"`
	ColIdx []int     `json:"col_idx"`
	Values []float64 `json:"values"`
}

// Vector 是稀疏行向量，Indices 严格递增，与 Values 等长。
type Vector struct {
	Indices []int
	Values  []float64
}

// Row 返回第 i 行的稀疏向量视图（共享底层存储，调用方不得修改）。
func (m *CSR) Row(i int) Vector {
	lo, hi := m.RowPtr[i], m.RowPtr[i+1]
	return Vector{
		Indices: m.ColIdx[lo:hi],
		Values:  m.Values[lo:hi],
	}
}

// NNZ 返回非零元个数。
func (m *CSR) NNZ() int {
	return len(m.Values)
}

// Validate 做结构一致性检查，用于工件加载后的防护。
func (m *CSR) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("matrix: negative dimensions %dx%d", m.Rows, m.Cols)
	}
	if len(m.RowPtr) != m.Rows+1 {
		return fmt.Errorf("matrix: row_ptr length %d, want %d", len(m.RowPtr), m.Rows+1)
	}
	if len(m.ColIdx) != len(m.Values) {
		return fmt.Errorf("matrix: col_idx length %d != values length %d", len(m.ColIdx), len(m.Values))
	}
	if m.Rows > 0 && m.RowPtr[0] != 0 {
		return fmt.Errorf("matrix: row_ptr must start at 0")
	}
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		if lo > hi || hi > len(m.ColIdx) {
			return fmt.Errorf("matrix: row %d range [%d,%d) out of bounds", i, lo, hi)
		}
		for j := lo + 1; j < hi; j++ {
			if m.ColIdx[j] <= m.ColIdx[j-1] {
				return fmt.Errorf("matrix: row %d column indices not strictly increasing", i)
			}
		}
		if hi > lo && (m.ColIdx[lo] < 0 || m.ColIdx[hi-1] >= m.Cols) {
			return fmt.Errorf("matrix: row %d column index out of range", i)
		}
	}
	return nil
}

// Dot 计算两个稀疏向量的点积（双指针归并）。
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm 计算稀疏向量的 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}
