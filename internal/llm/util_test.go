package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"title\": \"t\"}\n```", `{"title": "t"}`},
		{"generic code block", "```\n{\"title\": \"t\"}\n```", `{"title": "t"}`},
		{"code block with language", "```javascript\n{\"title\": \"t\"}\n```", `{"title": "t"}`},
		{"plain JSON", `{"title": "t"}`, `{"title": "t"}`},
		{"preamble before object", "Here is the result:\n{\"title\": \"여드름 관리\"}", `{"title": "여드름 관리"}`},
		{"preamble before array", "Keywords:\n[\"피부과\", \"여드름\"]", `["피부과", "여드름"]`},
		{"trailing text", "{\"title\": \"t\"}\n\nLet me know if you need anything else!", `{"title": "t"}`},
		{"nested", "Output: {\"a\": {\"b\": {\"c\": \"deep\"}}}", `{"a": {"b": {"c": "deep"}}}`},
		{"escaped quotes", "Result: {\"m\": \"He said \\\"hi\\\"\"}", `{"m": "He said \"hi\""}`},
		{"no json", "no json here", "no json here"},
		{"unbalanced", "{\"title\": ", "{\"title\":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `{"key": "value"}`, `{"key": "value"}`},
		{"with array", `{"items": [1, 2, 3]}`, `{"items": [1, 2, 3]}`},
		{"trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"braces in string", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"empty", "", ""},
		{"not an object", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `["a", "b"]`, `["a", "b"]`},
		{"nested", `[[1, 2], [3, 4]]`, `[[1, 2], [3, 4]]`},
		{"objects", `[{"id": 1}, {"id": 2}]`, `[{"id": 1}, {"id": 2}]`},
		{"brackets in string", `["a]b", "c"] tail`, `["a]b", "c"]`},
		{"empty", "", ""},
		{"not an array", "nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
