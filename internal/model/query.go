package model

const (
	// DefaultLanguage is used when a request does not name one.
	DefaultLanguage = "en"
	// StatusSuccess is the status reported by successful pipeline responses.
	StatusSuccess = "success"
)

// QueryRequest is a plain-text question about a government or legal topic.
type QueryRequest struct {
	Question string  `json:"question"`
	Language string  `json:"language"`
	ChatID   *string `json:"chat_id,omitempty"`
}

// QueryResponse carries the explanation for a question.
type QueryResponse struct {
	Answer    string  `json:"answer"`
	Language  string  `json:"language"`
	UserID    string  `json:"user_id"`
	ChatID    *string `json:"chat_id"`
	Timestamp string  `json:"timestamp"`
	Status    string  `json:"status"`
}

// ImageUpload is an uploaded document image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// OCRResponse carries the text extracted from an image and its explanation.
type OCRResponse struct {
	ExtractedText string  `json:"extracted_text"`
	AIExplanation string  `json:"ai_explanation"`
	Language      string  `json:"language"`
	Status        string  `json:"status"`
	ChatID        *string `json:"chat_id"`
}
