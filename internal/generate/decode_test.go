package generate

import (
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "  hello  ", want: "hello"},
		{name: "fenced with tag", raw: "```yaml\nversion: '3.8'\n```", want: "version: '3.8'"},
		{name: "fenced without tag", raw: "```\nprint('boot')\n```\n", want: "print('boot')"},
		{name: "single line", raw: "```json{\"a\":1}```", want: `{"a":1}`},
		{name: "inner fences kept", raw: "# Readme\n\n```bash\nmake\n```", want: "# Readme\n\n```bash\nmake\n```"},
		{
			name: "leading block followed by prose",
			raw:  "```bash\ndocker compose up\n```\n\nThen open the dashboard.",
			want: "```bash\ndocker compose up\n```\n\nThen open the dashboard.",
		},
		{
			name: "two blocks",
			raw:  "```bash\nmake\n```\ntext\n```bash\nmake run\n```",
			want: "```bash\nmake\n```\ntext\n```bash\nmake run\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.raw); got != tt.want {
				t.Fatalf("StripFence = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "bare array", raw: ` [1,2] `, want: `[1,2]`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose and fence", raw: "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy!", want: `{"a":1}`},
		{name: "prose only around", raw: "Result: {\"a\":{\"b\":2}} done", want: `{"a":{"b":2}}`},
		{name: "fence then prose with braces", raw: "```json\n{\"a\":1}\n```\nLet me know if you need {more}.", want: `{"a":1}`},
		{name: "fence inside string value", raw: `{"p":"Save as:\n` + "```json" + `\n{}\n` + "```" + `"}`, want: `{"p":"Save as:\n` + "```json" + `\n{}\n` + "```" + `"}`},
		{name: "fenced with fence inside string", raw: "```json\n{\"p\":\"x ``` y\"}\n```", want: `{"p":"x ` + "```" + ` y"}`},
		{name: "trailing prose after value", raw: "{\"a\":[1,2]} and [3]", want: `{"a":[1,2]}`},
		{name: "braces in prose before value", raw: "Use {name} here: {\"a\":1}", want: `{"a":1}`},
		{name: "unterminated fence", raw: "```json\n{\"a\":1}", want: `{"a":1}`},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no json", raw: "sorry, I cannot do that", wantErr: true},
		{name: "unterminated", raw: "{\"a\":", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("ExtractJSON error = %v, want malformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ExtractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	shape := Object("bible", map[string]*schema.ParameterInfo{
		"seriesTitle":     Str("title"),
		"recurringMotifs": Strs("motifs"),
	})
	type bible struct {
		SeriesTitle     string   `json:"seriesTitle"`
		RecurringMotifs []string `json:"recurringMotifs"`
	}

	var out bible
	if err := Decode("```json\n{\"seriesTitle\":\"Storm\",\"recurringMotifs\":[\"a\",\"b\"]}\n```", shape, &out); err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if out.SeriesTitle != "Storm" || len(out.RecurringMotifs) != 2 {
		t.Fatalf("decoded = %+v", out)
	}

	err := Decode(`{"seriesTitle":"Storm"}`, shape, &out)
	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("Decode error = %v, want *MalformedError", err)
	}
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatal("expected ErrMalformedResponse")
	}

	if err := Decode(`{"seriesTitle":`, shape, &out); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Decode invalid JSON error = %v", err)
	}
}

func TestDecodePersonaWithFencedSystemPrompt(t *testing.T) {
	shape := Object("persona", map[string]*schema.ParameterInfo{
		"role":         Str("role"),
		"systemPrompt": Str("prompt"),
		"tools":        Strs("tools"),
	})
	raw := `{"role":"Editor (FFmpeg)","systemPrompt":"At 40% save state as:\n` + "```json" +
		`\n{\"crystal\":\"memory_crystal.v1.json\"}\n` + "```" + `\nthen exit.","tools":["ffmpeg"]}`

	var out struct {
		Role         string   `json:"role"`
		SystemPrompt string   `json:"systemPrompt"`
		Tools        []string `json:"tools"`
	}
	for _, in := range []string{raw, "```json\n" + raw + "\n```", "Here it is:\n" + raw + "\nDone."} {
		if err := Decode(in, shape, &out); err != nil {
			t.Fatalf("Decode(%q) error = %v", in, err)
		}
		if out.Role != "Editor (FFmpeg)" || !strings.Contains(out.SystemPrompt, "```json\n{\"crystal\"") {
			t.Fatalf("decoded = %+v", out)
		}
	}
}
