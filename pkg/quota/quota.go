// Package quota decides whether a chat may accept another message based on
// the owner's plan and the number of messages already stored in the chat.
package quota

import (
	"errors"
	"fmt"

	"rakhaai/pkg/domain"
)

// Per-chat message limits. Premium has no limit.
const (
	FreeLimit = 10
	ProLimit  = 100
)

// ErrInvalidPlan marks a plan value outside the known tiers. It signals a
// data integrity problem upstream, not user error.
var ErrInvalidPlan = errors.New("Invalid user plan.")

// LimitError reports a denied turn together with the human-readable reason
// shown to the user.
type LimitError struct {
	Plan  domain.Plan
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You have reached the message limit of %d for %s plan in this chat.", e.Limit, e.Plan)
}

// Check returns nil when a chat with count existing messages may accept one
// more. The count is the pre-existing total of user and ai messages, not
// incremented for the in-flight turn. Unknown plans are rejected, never
// defaulted.
func Check(plan domain.Plan, count int) error {
	switch plan {
	case domain.PlanPremium:
		return nil
	case domain.PlanPro:
		if count >= ProLimit {
			return &LimitError{Plan: plan, Limit: ProLimit}
		}
		return nil
	case domain.PlanFree:
		if count >= FreeLimit {
			return &LimitError{Plan: plan, Limit: FreeLimit}
		}
		return nil
	default:
		return ErrInvalidPlan
	}
}
