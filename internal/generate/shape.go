package generate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/schema"
)

// Str, Num, Int and Strs build required leaf fields.
func Str(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.String, Desc: desc, Required: true}
}

func Num(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Number, Desc: desc, Required: true}
}

func Int(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Integer, Desc: desc, Required: true}
}

func Strs(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Array,
		Desc:     desc,
		Required: true,
		ElemInfo: &schema.ParameterInfo{Type: schema.String},
	}
}

// Object builds a required object with the given fields.
func Object(desc string, fields map[string]*schema.ParameterInfo) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Object, Desc: desc, Required: true, SubParams: fields}
}

// ArrayOf builds a required array of elem.
func ArrayOf(desc string, elem *schema.ParameterInfo) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Array, Desc: desc, Required: true, ElemInfo: elem}
}

// Describe renders shape as a JSON schema document for the prompt. Object
// shapes go through eino's own conversion; an array root wraps the schema
// of its element. Key order is stable.
func Describe(shape *schema.ParameterInfo) (string, error) {
	if shape == nil {
		return "", fmt.Errorf("shape is nil")
	}
	doc, err := describe(shape)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal shape: %w", err)
	}
	return string(b), nil
}

func describe(p *schema.ParameterInfo) (map[string]any, error) {
	var out map[string]any
	switch p.Type {
	case schema.Object:
		js, err := schema.NewParamsOneOfByParams(p.SubParams).ToJSONSchema()
		if err != nil {
			return nil, fmt.Errorf("convert shape: %w", err)
		}
		raw, err := json.Marshal(js)
		if err != nil {
			return nil, fmt.Errorf("marshal shape: %w", err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("unmarshal shape: %w", err)
		}
		sortRequired(out)
	case schema.Array:
		out = map[string]any{"type": string(schema.Array)}
		if p.ElemInfo != nil {
			items, err := describe(p.ElemInfo)
			if err != nil {
				return nil, err
			}
			out["items"] = items
		}
	default:
		out = map[string]any{"type": string(p.Type)}
		if len(p.Enum) > 0 {
			out["enum"] = p.Enum
		}
	}
	if p.Desc != "" {
		out["description"] = p.Desc
	}
	return out, nil
}

// sortRequired orders every "required" list in a decoded schema.
func sortRequired(v any) {
	switch node := v.(type) {
	case map[string]any:
		if req, ok := node["required"].([]any); ok {
			sort.Slice(req, func(i, j int) bool {
				a, _ := req[i].(string)
				b, _ := req[j].(string)
				return a < b
			})
		}
		for _, child := range node {
			sortRequired(child)
		}
	case []any:
		for _, child := range node {
			sortRequired(child)
		}
	}
}

// Validate checks a decoded JSON value against shape. Required object
// fields must be present and non-null.
func Validate(shape *schema.ParameterInfo, v any) error {
	return validate("$", shape, v)
}

func validate(path string, p *schema.ParameterInfo, v any) error {
	if v == nil {
		return fmt.Errorf("%s: null value, want %s", path, p.Type)
	}
	switch p.Type {
	case schema.String:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s: got %T, want string", path, v)
		}
	case schema.Number:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%s: got %T, want number", path, v)
		}
	case schema.Integer:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("%s: got %v, want integer", path, v)
		}
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: got %T, want boolean", path, v)
		}
	case schema.Array:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: got %T, want array", path, v)
		}
		if p.ElemInfo == nil {
			return nil
		}
		for i, item := range arr {
			if err := validate(fmt.Sprintf("%s[%d]", path, i), p.ElemInfo, item); err != nil {
				return err
			}
		}
	case schema.Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: got %T, want object", path, v)
		}
		names := make([]string, 0, len(p.SubParams))
		for name := range p.SubParams {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sub := p.SubParams[name]
			field, present := obj[name]
			if !present || field == nil {
				if sub.Required {
					return fmt.Errorf("%s.%s: missing required field", path, name)
				}
				continue
			}
			if err := validate(path+"."+name, sub, field); err != nil {
				return err
			}
		}
	}
	return nil
}
