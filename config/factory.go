// Package config 提供默认的 NodeFactory：把 YAML Pipeline 配置
// 翻译成可执行的 Node 链。
package config

import (
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/rerank"
)

// DefaultFactory 返回一个包含内置 Node 的默认工厂。
//
// 需要运行期依赖（工件句柄、存储）的 Node（召回、已拥有过滤）
// 由服务侧用代码组装；工厂只负责纯配置即可构建的节点。
func DefaultFactory() *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("rerank.topn", buildTopNNode)
	factory.Register("filter.rule", buildRuleFilterNode)

	return factory
}

func buildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: conv.ConfigGetInt(cfg, "n", 0),
	}, nil
}

func buildRuleFilterNode(cfg map[string]any) (pipeline.Node, error) {
	return &filter.FilterNode{
		Filters: []filter.Filter{
			&filter.RuleFilter{Expr: conv.ConfigGet[string](cfg, "expr", "")},
		},
	}, nil
}
