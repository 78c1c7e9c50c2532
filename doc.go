// Package bookrec 是一个图书个性化推荐引擎（Book Recommender）。
//
// 核心是物品-物品协同过滤：在用户均值中心化的稀疏评分矩阵上，
// 对物品行向量做精确余弦近邻检索，查询期把用户已知书目的邻居
// 相似度累加成单一排序列表。
//
// 设计要点：
// - 离线/在线分离: train 包一次性批量训练并原子发布工件版本，
//   recommend 包只读已加载的 bundle 服务查询
// - Pipeline-first: 查询侧逻辑通过 Node 串联（Recall → Filter → ReRank）
// - 显式句柄: 工件通过可热更新的 artifact.Handle 传入查询函数，
//   没有进程级全局状态，重训后换引用即可生效
package bookrec

import "github.com/rushteam/bookrec/pipeline"

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
