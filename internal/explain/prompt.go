package explain

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are Civic AI, an assistant that helps citizens understand government schemes, legal notices, public services and official documents.
Explain the text you are given in plain, simple language that a person without legal training can follow.
Structure the answer in Markdown:
- start with a "#" heading that names the topic,
- use "##" sections for "Summary", "Key Points", "What You Need To Do" and "Important Notes",
- use bullet points for lists and numbered steps for actions,
- give concrete, actionable next steps and name the documents or offices involved when the text makes them clear.
Never invent deadlines, amounts or eligibility rules that are not in the text. If the text is unclear, say so.`

const visionInstructions = `The attached image is a photo or scan of a government or legal document.
First transcribe all readable text in the image exactly as written.
Then explain the document following the instructions above.
Reply with a single JSON object and nothing else, in this form:
{"extracted_text": "<all text read from the image>", "explanation": "<Markdown explanation>"}`

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"bn": "Bengali",
	"ta": "Tamil",
	"te": "Telugu",
	"mr": "Marathi",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
	"ur": "Urdu",
	"or": "Odia",
	"es": "Spanish",
	"fr": "French",
}

// LanguageName returns a display name for a language code. Unknown codes are
// returned unchanged so free-form names still reach the model.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	if code == "" {
		return languageNames["en"]
	}
	return code
}

func languageInstruction(language string) string {
	return fmt.Sprintf("Respond in %s. If you cannot respond in %s, respond in English.", LanguageName(language), LanguageName(language))
}

// textPrompt builds the user prompt for a plain-text explanation.
func textPrompt(text, language string) string {
	var b strings.Builder
	b.WriteString(languageInstruction(language))
	b.WriteString("\n\nExplain the following text:\n\n")
	b.WriteString(text)
	return b.String()
}

// imagePrompt builds the user prompt for the combined extract-and-explain call.
func imagePrompt(language string) string {
	return visionInstructions + "\n\n" + languageInstruction(language)
}
