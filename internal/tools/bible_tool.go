package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/pipeline"
)

const BibleToolName = "series_bible_generate"

// BibleGenerator 生成系列圣经，*pipeline.Pipeline 实现了该接口
type BibleGenerator interface {
	SeriesBible(ctx context.Context, topic, style string, rep pipeline.Reporter) (model.SeriesBible, error)
}

// BibleTool 生成系列圣经的eino工具
type BibleTool struct {
	gen BibleGenerator
}

// BibleToolArgs 请求参数
type BibleToolArgs struct {
	Topic string `json:"topic"` // 纪录片主题
	Style string `json:"style"` // 视觉风格
}

func NewBibleTool(gen BibleGenerator) *BibleTool {
	return &BibleTool{gen: gen}
}

// Info 工具描述
func (t *BibleTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"topic": {Type: schema.String, Required: true, Desc: "documentary topic"},
		"style": {Type: schema.String, Required: true, Desc: "visual style"},
	}
	return &schema.ToolInfo{
		Name:        BibleToolName,
		Desc:        "Create the series bible (title, visual language, narrative tone, recurring motifs, episode format) for a documentary",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

// InvokableRun 返回SeriesBible的JSON
func (t *BibleTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args BibleToolArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	if args.Topic == "" || args.Style == "" {
		return "", fmt.Errorf("%w: topic and style required", ErrBadArguments)
	}

	bible, err := t.gen.SeriesBible(ctx, args.Topic, args.Style, nil)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(bible)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ErrBadArguments 工具参数无法解析或缺少必填项
var ErrBadArguments = errors.New("bad tool arguments")

var _ einotool.InvokableTool = (*BibleTool)(nil)
