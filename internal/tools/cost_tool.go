package tools

import (
	"context"
	"encoding/json"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/model"
)

const CostToolName = "cost_estimate"

// CostTool 成本估算工具，纯本地计算
type CostTool struct{}

// CostToolResp 成本估算结果
type CostToolResp struct {
	Items []model.CostItem `json:"items"` // 成本明细
	Total float64          `json:"total"` // 合计（保留两位小数）
}

func NewCostTool() *CostTool { return &CostTool{} }

func (t *CostTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"runtime":    {Type: schema.Integer, Desc: "runtime in minutes, default 90"},
		"sceneCount": {Type: schema.Integer, Desc: "estimated scene count, default 60"},
	}
	return &schema.ToolInfo{
		Name:        CostToolName,
		Desc:        "Estimate the production budget for a documentary of the given runtime and scene count",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *CostTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args cost.Params
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadArguments, err)
		}
	}
	if args.RuntimeMinutes < 0 || args.SceneCount < 0 {
		return "", fmt.Errorf("%w: runtime and sceneCount must not be negative", ErrBadArguments)
	}
	b, err := json.Marshal(Estimate(args))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Estimate 根据参数生成成本估算结果
func Estimate(p cost.Params) CostToolResp {
	items := cost.Estimate(p)
	return CostToolResp{Items: items, Total: cost.RoundCents(cost.Total(items))}
}

var _ einotool.InvokableTool = (*CostTool)(nil)
