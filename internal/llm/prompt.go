package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = `You rename identifiers in minified JavaScript.
You are given a list of identifier names and a code excerpt showing how they
are used. Suggest a descriptive camelCase name for each identifier based on
its role in the code.

Respond with a single JSON object mapping every given name to its new name,
and nothing else. Example: {"a": "userCount", "b": "fetchConfig"}.
Keep a name unchanged when the code gives no hint about its purpose.`

// buildUserPrompt assembles the per-batch prompt from the names and the
// engine-extracted context.
func buildUserPrompt(names []string, codeContext string) string {
	var sb strings.Builder
	sb.WriteString("Rename the following identifiers: ")
	sb.WriteString(strings.Join(names, ", "))
	sb.WriteString("\n\nCode:\n```js\n")
	sb.WriteString(codeContext)
	sb.WriteString("\n```\n")
	fmt.Fprintf(&sb, "Return a JSON object with exactly %d entries.\n", len(names))
	return sb.String()
}
