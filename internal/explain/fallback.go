package explain

import (
	"context"
	"strings"
)

// FallbackEchoLimit is the number of runes of input echoed by a fallback
// explanation.
const FallbackEchoLimit = 500

// DegradedNotice closes every fallback explanation.
const DegradedNotice = "*Notice: The AI explanation service is currently unavailable. This is a basic response; please try again later for a detailed explanation.*"

// Fallback produces deterministic explanations without any external call.
type Fallback struct{}

// Name returns the backend name.
func (Fallback) Name() string {
	return "fallback"
}

// Explain never fails.
func (Fallback) Explain(_ context.Context, text, language string) (string, error) {
	return FallbackExplanation(text, language), nil
}

// FallbackExplanation renders the degraded-service explanation for text.
func FallbackExplanation(text, language string) string {
	if strings.TrimSpace(language) == "" {
		language = "en"
	}

	var b strings.Builder
	b.WriteString("# Document Explanation\n\n")
	b.WriteString("## Your Text\n")
	b.WriteString(Truncate(strings.TrimSpace(text), FallbackEchoLimit))
	b.WriteString("\n\n")
	b.WriteString("## What This Means\n")
	b.WriteString("This text appears to relate to a government scheme, legal notice or public service. ")
	b.WriteString("A detailed plain-language explanation could not be generated right now, but the general steps below apply to most official documents.\n\n")
	b.WriteString("## Next Steps\n")
	b.WriteString("1. **Read Carefully**: Note any dates, deadlines, amounts and reference numbers mentioned\n")
	b.WriteString("2. **Check Official Sources**: Confirm the details on the official government website or portal\n")
	b.WriteString("3. **Gather Documents**: Keep identity proof, address proof and any documents the text refers to ready\n")
	b.WriteString("4. **Seek Assistance**: Contact the issuing office or a local help center if anything is unclear\n\n")
	b.WriteString("## Important Notes\n")
	b.WriteString("• Always use official government channels for applications and payments\n")
	b.WriteString("• Beware of middlemen who charge unnecessary fees\n")
	b.WriteString("• Keep copies of everything you submit\n\n")
	b.WriteString("**Language**: ")
	b.WriteString(language)
	b.WriteString("\n\n")
	b.WriteString(DegradedNotice)
	return b.String()
}

// Truncate returns at most limit runes of s, appending "..." when s was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
