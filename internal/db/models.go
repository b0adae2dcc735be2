package db

// Note represents a row in the notes table
type Note struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	RefinedText   *string `json:"refined_text"`
	Summary       *string `json:"summary"`
	Tags          string  `json:"tags"` // comma separated
	IsDone        bool    `json:"is_done"`
	IsAIProcessed bool    `json:"is_ai_processed"`
	Category      string  `json:"category"`       // "text", "audio", "image", "link", "task"
	Intent        *string `json:"intent"`         // "calendar", "alarm", "message"
	IntentPayload *string `json:"intent_payload"` // JSON object text
	CreatedAt     int64   `json:"created_at"`     // Unix millis
	UpdatedAt     int64   `json:"updated_at"`     // Unix millis
}

// NoteInput holds the fields of a note that callers write.
type NoteInput struct {
	Title         string
	Content       string
	RefinedText   string
	Summary       string
	Tags          string
	Category      string
	IsAIProcessed bool
	Intent        string
	IntentPayload string
}
