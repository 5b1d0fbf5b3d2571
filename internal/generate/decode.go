package generate

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const fence = "```"

// StripFence removes a markdown code fence that wraps the whole response,
// including its language tag. Fences inside the text are kept, and so is
// a fence that closes before the end of the response.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if len(text) < 2*len(fence) || !strings.HasPrefix(text, fence) || !strings.HasSuffix(text, fence) {
		return text
	}
	body := text[len(fence) : len(text)-len(fence)]
	if strings.Contains(body, fence) {
		return text
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		// single line: ```json{...}```
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	return strings.TrimSpace(body)
}

// fencedBlock returns the body of the first code block whose opening fence
// starts a line, up to the closing fence line that matches it. An
// unterminated block runs to the end of text.
func fencedBlock(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == fence {
				return strings.Join(lines[i+1:j], "\n"), true
			}
		}
		return strings.Join(lines[i+1:], "\n"), true
	}
	return "", false
}

// firstValue decodes the first complete JSON object or array in text and
// ignores whatever follows it.
func firstValue(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var v json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&v); err == nil {
			return string(v), true
		}
	}
	return "", false
}

// ExtractJSON returns the JSON document inside raw, tolerating code fences
// and prose around it.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", malformed(raw, "empty response")
	}
	if json.Valid([]byte(text)) {
		return text, nil
	}
	if body := StripFence(text); body != text && json.Valid([]byte(body)) {
		return body, nil
	}
	if body, ok := fencedBlock(text); ok {
		body = strings.TrimSpace(body)
		if json.Valid([]byte(body)) {
			return body, nil
		}
		if doc, ok := firstValue(body); ok {
			return doc, nil
		}
	}
	if doc, ok := firstValue(text); ok {
		return doc, nil
	}
	if !strings.ContainsAny(text, "{[") {
		return "", malformed(raw, "no JSON value in response")
	}
	return "", malformed(raw, "invalid JSON value in response")
}

// Decode extracts, validates and unmarshals raw into out.
func Decode(raw string, shape *schema.ParameterInfo, out any) error {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal([]byte(doc), &generic); err != nil {
		return malformed(raw, "invalid JSON: %v", err)
	}
	if shape != nil {
		if err := Validate(shape, generic); err != nil {
			return malformed(raw, "schema mismatch: %v", err)
		}
	}
	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return malformed(raw, "decode: %v", err)
	}
	return nil
}
