package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt([]string{"a", "b2"}, "const a = 1;\nconst b2 = 2;")
	assert.True(t, strings.Contains(prompt, "a, b2"))
	assert.Contains(t, prompt, "const a = 1;")
	assert.Contains(t, prompt, "exactly 2 entries")
}
