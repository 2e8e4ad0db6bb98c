package offline

import (
	"context"
	"strings"

	"github.com/vietddude/lifeline/internal/resilience/fallback"
)

// cannedResponse is a keyword-matched reply usable with no connectivity.
type cannedResponse struct {
	keywords []string
	response string
	assetTag string
}

var cannedResponses = []cannedResponse{
	{
		keywords: []string{"hello", "hi", "hey", "good morning", "good evening"},
		response: "Hey! I'm running in offline mode right now, but I'm still here with you.",
		assetTag: "greeting",
	},
	{
		keywords: []string{"how are you", "what's up", "how do you feel"},
		response: "I'm doing alright, though I'm offline at the moment so I'm working with what I have locally.",
		assetTag: "default",
	},
	{
		keywords: []string{"thank", "thanks"},
		response: "You're welcome! Happy to help, even offline.",
		assetTag: "celebration",
	},
	{
		keywords: []string{"bye", "goodbye", "see you", "good night"},
		response: "See you soon! I'll catch up on anything we queued once I'm back online.",
		assetTag: "default",
	},
	{
		keywords: []string{"help", "what can you do"},
		response: "While offline I can chat with saved knowledge and queue requests to run once connectivity returns.",
		assetTag: "default",
	},
}

const offlineDefaultResponse = "I'm offline right now, so I can't reach my usual services. " +
	"I've saved your request and will handle it as soon as I'm reconnected."

// OfflineResponder answers from canned replies and offline-capable assets
// when no remote path is available.
type OfflineResponder struct {
	selector *fallback.Selector
}

// NewOfflineResponder creates a responder over the asset selector.
func NewOfflineResponder(selector *fallback.Selector) *OfflineResponder {
	return &OfflineResponder{selector: selector}
}

// Respond matches the input against canned replies and pairs the reply with
// a locally available asset. Falls back to a generic offline answer.
func (r *OfflineResponder) Respond(ctx context.Context, input string) (string, fallback.Selection) {
	lower := strings.ToLower(input)

	tag := "default"
	response := offlineDefaultResponse
	for _, cr := range cannedResponses {
		if matchesAny(lower, cr.keywords) {
			tag = cr.assetTag
			response = cr.response
			break
		}
	}

	var sel fallback.Selection
	if r.selector != nil {
		sel = r.selector.Select(ctx, tag, fallback.Options{AllowOfflineOnly: true})
	}
	return response, sel
}

func matchesAny(input string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}
