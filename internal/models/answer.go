package models

// AnswerKind classifies a generation outcome.
type AnswerKind int

const (
	// AnswerOk carries a usable model response.
	AnswerOk AnswerKind = iota
	// AnswerDegraded means the model returned no usable candidate
	// (safety filtering, empty output). Still a valid answer for the user.
	AnswerDegraded
	// AnswerFailed means the call itself failed. Rendered as conversational
	// text rather than propagated, so the chat loop never breaks.
	AnswerFailed
)

// Answer is the tagged result of a generation request. It is converted to a
// display string only at the UI boundary.
type Answer struct {
	Kind AnswerKind
	Text string
}

// WarningMarker prefixes every failed-generation display string.
const WarningMarker = "⚠️ Error:"

func (a Answer) String() string {
	if a.Kind == AnswerFailed {
		return WarningMarker + " " + a.Text
	}
	return a.Text
}
