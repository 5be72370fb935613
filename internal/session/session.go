package session

import (
	"time"

	"hrassist-backend/internal/models"
)

// Gap is the idle threshold separating two sessions within one conversation.
const Gap = 30 * time.Minute

// IsNewSession reports whether a message at candidate starts a new session
// given the previous message's timestamp.
func IsNewSession(lastMessage, candidate time.Time) bool {
	return candidate.Sub(lastMessage) > Gap
}

// Boundaries computes session dividers for a render pass. The returned slice
// is aligned with messages: a non-zero entry is the sequential session number
// (starting at 1) whose divider is shown before that message. Sessions are a
// view-time concept recomputed from stored timestamps, never persisted.
func Boundaries(messages []models.Message) []int {
	out := make([]int, len(messages))
	next := 1
	for i := 1; i < len(messages); i++ {
		if IsNewSession(messages[i-1].Timestamp, messages[i].Timestamp) {
			out[i] = next
			next++
		}
	}
	return out
}
