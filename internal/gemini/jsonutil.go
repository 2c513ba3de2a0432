package gemini

import "strings"

// stripCodeFence removes incidental markdown code-fence wrapping from a
// model response before JSON parsing. Models wrap structured output in
// ```json fences often enough that this is the common fix.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
