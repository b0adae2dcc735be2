package ai

import "strings"

const systemPrompt = "You are an expert at organizing notes and polishing writing."

// promptShape is the JSON object the model is asked to return.
const promptShape = `{
  "title": "core title, at most 20 characters",
  "refined_content": "the complete organized and polished content, with a TL;DR first if it is long",
  "summary": "a short summary or the polished main text",
  "tags": "tag1,tag2",
  "category": "text | audio | image | link | task",
  "intent": "calendar | alarm | message | info",
  "intentPayload": {
    "time": "ISO time, if any",
    "location": "place, if any",
    "contact": "contact, if any",
    "message": "message content, if any",
    "raw_text": "the original description of the intent"
  }
}`

// BuildPrompt renders the user prompt for one note.
func BuildPrompt(content string) string {
	var b strings.Builder
	b.WriteString("You are a quick-capture note assistant with two roles.\n")
	b.WriteString("1. Organizer:\n")
	b.WriteString("   - Layout: fix punctuation and improve readability with line breaks and indentation.\n")
	b.WriteString("   - Summary: if the note is longer than 100 characters, put a one-sentence TL;DR at the top.\n")
	b.WriteString("   - Tags: predict tags from the content (for example: idea, work, life, schedule).\n")
	b.WriteString("2. Action router:\n")
	b.WriteString("   - Recognize the user's intent and map it to one of:\n")
	b.WriteString("     \"calendar\" -> create an event (extract time and place).\n")
	b.WriteString("     \"alarm\" -> set an alarm (extract the time or duration).\n")
	b.WriteString("     \"message\" -> send a message (extract contact and content).\n")
	b.WriteString("     \"info\" -> a plain note.\n")
	b.WriteString("Answer in the language of the input.\n\n")
	b.WriteString("Input:\n")
	b.WriteString(content)
	b.WriteString("\n\nReturn strictly a JSON object of this shape:\n")
	b.WriteString(promptShape)
	return b.String()
}

// BuildMessages returns the system and user messages for one note.
func BuildMessages(content string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildPrompt(content)},
	}
}
