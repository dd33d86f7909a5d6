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
		{"json code block", "```json\n{\"action\": \"add\"}\n```", `{"action": "add"}`},
		{"generic code block", "```\n{\"action\": \"add\"}\n```", `{"action": "add"}`},
		{"plain JSON", `{"action": "add"}`, `{"action": "add"}`},
		{"preamble", "Here is my advice:\n{\"message\": \"Looks good\"}", `{"message": "Looks good"}`},
		{"trailing text", "{\"message\": \"ok\"}\n\nHope this helps!", `{"message": "ok"}`},
		{"braces in strings", `Result: {"reason": "use {role} keywords"}`, `{"reason": "use {role} keywords"}`},
		{"escaped quotes", "{\"item\": \"He said \\\"hi\\\"\"}", "{\"item\": \"He said \\\"hi\\\"\"}"},
		{"array", "Items:\n[\"a\", \"b\"]", `["a", "b"]`},
		{"no json", "  I cannot help with that.  ", "I cannot help with that."},
		{"unbalanced", `{"message": "cut off`, `{"message": "cut off`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": [1, 2]}}`, extractBalanced(`{"a": {"b": [1, 2]}} tail`))
	assert.Equal(t, "", extractBalanced("not json"))
	assert.Equal(t, "", extractBalanced(""))
}
