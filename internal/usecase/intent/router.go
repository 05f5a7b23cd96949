package intent

import (
	"strings"

	"github.com/kailas-cloud/portfolio-rag/internal/domain/search/intent"
	"github.com/kailas-cloud/portfolio-rag/internal/vocabulary"
)

// ShortQuestionTokens is the token count at or below which a question
// without any domain keyword is treated as small talk.
const ShortQuestionTokens = 3

// Router classifies questions with a keyword-membership heuristic.
type Router struct {
	keywords vocabulary.Keywords
}

// NewRouter builds a router from the retrieval keywords plus every country alias.
func NewRouter(v vocabulary.Vocabulary) *Router {
	return &Router{keywords: vocabulary.NewKeywords(v.RetrievalKeywords, v.CountryAliases())}
}

// NeedsRetrieval reports whether the question should go through retrieval.
// Any keyword hit wins regardless of length; short questions without one are
// conversational; longer questions default to retrieval.
func (r *Router) NeedsRetrieval(question string) bool {
	folded := strings.TrimSpace(vocabulary.Fold(question))
	if r.keywords.In(folded) {
		return true
	}
	return len(strings.Fields(folded)) > ShortQuestionTokens
}

// Route returns the routing decision.
func (r *Router) Route(question string) intent.Intent {
	if r.NeedsRetrieval(question) {
		return intent.Retrieval
	}
	return intent.Conversational
}
