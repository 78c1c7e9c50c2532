package matrix

import (
	"math"
	"testing"
)

// TestVectorDot 测试稀疏向量点积的双指针归并
func TestVectorDot(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{
			name: "完全重叠",
			a:    Vector{Indices: []int{0, 1}, Values: []float64{1, 2}},
			b:    Vector{Indices: []int{0, 1}, Values: []float64{3, 4}},
			want: 11,
		},
		{
			name: "部分重叠",
			a:    Vector{Indices: []int{0, 2}, Values: []float64{1, -0.5}},
			b:    Vector{Indices: []int{1, 2}, Values: []float64{9, 2}},
			want: -1,
		},
		{
			name: "没有重叠",
			a:    Vector{Indices: []int{0}, Values: []float64{5}},
			b:    Vector{Indices: []int{1}, Values: []float64{5}},
			want: 0,
		},
		{
			name: "空向量",
			a:    Vector{},
			b:    Vector{Indices: []int{0}, Values: []float64{1}},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Dot(tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Dot() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestVectorNorm(t *testing.T) {
	v := Vector{Indices: []int{0, 1}, Values: []float64{3, 4}}
	if got := v.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm() = %v, 期望 5", got)
	}
	if got := (Vector{}).Norm(); got != 0 {
		t.Errorf("空向量 Norm() = %v, 期望 0", got)
	}
}

// TestCSRValidate 测试加载防护的结构校验
func TestCSRValidate(t *testing.T) {
	valid := &CSR{
		Rows:   2,
		Cols:   3,
		RowPtr: []int{0, 2, 3},
		ColIdx: []int{0, 2, 1},
		Values: []float64{1, -1, 0.5},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("合法矩阵校验失败: %v", err)
	}

	tests := []struct {
		name string
		m    *CSR
	}{
		{
			name: "row_ptr 长度错误",
			m:    &CSR{Rows: 2, Cols: 2, RowPtr: []int{0, 1}, ColIdx: []int{0}, Values: []float64{1}},
		},
		{
			name: "col_idx 与 values 长度不一致",
			m:    &CSR{Rows: 1, Cols: 2, RowPtr: []int{0, 1}, ColIdx: []int{0}, Values: []float64{1, 2}},
		},
		{
			name: "行内列号不递增",
			m:    &CSR{Rows: 1, Cols: 3, RowPtr: []int{0, 2}, ColIdx: []int{1, 1}, Values: []float64{1, 2}},
		},
		{
			name: "列号越界",
			m:    &CSR{Rows: 1, Cols: 2, RowPtr: []int{0, 1}, ColIdx: []int{5}, Values: []float64{1}},
		},
		{
			name: "row_ptr 不从 0 开始",
			m:    &CSR{Rows: 1, Cols: 2, RowPtr: []int{1, 1}, ColIdx: nil, Values: nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); err == nil {
				t.Errorf("期望校验失败，实际通过")
			}
		})
	}
}

func TestCSRRow(t *testing.T) {
	m := &CSR{
		Rows:   3,
		Cols:   3,
		RowPtr: []int{0, 2, 2, 3},
		ColIdx: []int{0, 1, 2},
		Values: []float64{1, -0.5, 1},
	}
	r0 := m.Row(0)
	if len(r0.Indices) != 2 || r0.Indices[0] != 0 || r0.Indices[1] != 1 {
		t.Errorf("第 0 行索引错误: %v", r0.Indices)
	}
	r1 := m.Row(1)
	if len(r1.Indices) != 0 {
		t.Errorf("第 1 行应为空行: %v", r1.Indices)
	}
	if m.NNZ() != 3 {
		t.Errorf("NNZ() = %d, 期望 3", m.NNZ())
	}
}
