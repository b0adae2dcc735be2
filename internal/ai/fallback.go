package ai

// TitleLimit is the maximum number of characters in a derived title.
const TitleLimit = 20

// Ellipsis marks a title that was cut at TitleLimit.
const Ellipsis = "..."

// FallbackTitle derives a title from note text: the first TitleLimit
// characters, with Ellipsis appended when the text was longer.
func FallbackTitle(text string) string {
	t := Take(text, TitleLimit)
	if len(t) < len(text) {
		return t + Ellipsis
	}
	return t
}

// Fallback builds the deterministic result used whenever the model could
// not be reached or its reply could not be interpreted. It never fails and
// depends only on text; reason is what went wrong and never changes the
// result. Callers log it.
func Fallback(text string, reason error) Result {
	return Result{
		Title:          FallbackTitle(text),
		RefinedContent: text,
		Category:       CategoryText,
		Intent:         IntentNone,
	}
}
