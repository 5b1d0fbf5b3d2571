// Package tools 将蓝图相关操作封装为 eino 可调用工具
package tools

import (
	"context"
	"fmt"
	"sort"

	einotool "github.com/cloudwego/eino/components/tool"
)

// Registry 按 Info 中的名称查找工具
type Registry struct {
	tools map[string]einotool.InvokableTool
}

// NewRegistry 按名称建立索引，名称重复时返回错误
func NewRegistry(ctx context.Context, tools ...einotool.InvokableTool) (*Registry, error) {
	r := &Registry{tools: make(map[string]einotool.InvokableTool, len(tools))}
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		if _, dup := r.tools[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", info.Name)
		}
		r.tools[info.Name] = t
	}
	return r, nil
}

func (r *Registry) Get(name string) (einotool.InvokableTool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names 返回已注册的工具名（已排序）
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
