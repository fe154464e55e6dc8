package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMoveAvailable is returned by SafeMove and RandomMove when there
	// is nothing left to choose from. Callers are expected to branch on it.
	ErrNoMoveAvailable = errors.New("no move available")
	ErrInvalidHint     = errors.New("invalid hint")
)

// InconsistentKnowledgeError means the hints fed to the agent contradict
// each other, so the knowledge base can no longer be trusted.
type InconsistentKnowledgeError struct {
	Reason   string
	Sentence *Sentence
}

// [InconsistentKnowledgeError] implements [error]
func (e *InconsistentKnowledgeError) Error() string {
	if e.Sentence == nil {
		return "inconsistent knowledge: " + e.Reason
	}
	return fmt.Sprintf("inconsistent knowledge: %s: %s", e.Reason, e.Sentence)
}
