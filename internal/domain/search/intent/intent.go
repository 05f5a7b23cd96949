package intent

// Intent is the routing decision for a question.
type Intent string

// Routing outcomes.
const (
	// Conversational questions are answered without retrieval.
	Conversational Intent = "conversational"
	// Retrieval questions run the filter, embed, search and synthesis path.
	Retrieval Intent = "retrieval"
)

// NeedsRetrieval reports whether the intent requires the retrieval path.
func (i Intent) NeedsRetrieval() bool { return i == Retrieval }
