package services

import "github.com/kalandor/engine/pkg/chat"

// HeuristicTokenCounter estimates token counts at ~4 characters per
// token. Good enough for budget threshold comparison; not
// billing-accurate. Monotonic in total content length.
type HeuristicTokenCounter struct{}

func (HeuristicTokenCounter) CountTokens(messages []chat.Message) int {
	total := 0
	for _, m := range messages {
		total += (len(m.Content) + 3) / 4
	}
	return total
}
