package core

import "github.com/rushteam/bookrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：编号（ISBN）、分数、元信息、标签。
// Meta 存放书目元数据（title / author）；Score 用于排序决策；
// Labels 用于解释与策略驱动。
type Item struct {
	ID     string // ISBN
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Title 返回 Meta 中的书名；缺失时返回空字符串。
func (it *Item) Title() string {
	if v, ok := it.Meta["title"].(string); ok {
		return v
	}
	return ""
}

// Author 返回 Meta 中的作者；缺失时返回空字符串。
func (it *Item) Author() string {
	if v, ok := it.Meta["author"].(string); ok {
		return v
	}
	return ""
}

// BookMeta 是书目元数据表的一行，按 ISBN 对齐。
type BookMeta struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// MetaPlaceholder 是元数据缺失时的占位值。
// 进入最终推荐列表的物品必须有非空的 title / author，缺失时填充占位值而不是剔除。
const MetaPlaceholder = "Unknown"
