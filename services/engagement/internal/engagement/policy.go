package engagement

import "github.com/example/blog-engagement/services/engagement/internal/store"

// Actor identifies who performs an operation. Anonymous actors carry a
// hashed visitor id.
type Actor struct {
	ID        string
	Anonymous bool
}

// ReactionPolicy decides who may react.
type ReactionPolicy struct {
	AllowAnonymous bool
}

func (p ReactionPolicy) permits(a Actor) bool {
	if a.ID == "" {
		return false
	}
	return !a.Anonymous || p.AllowAnonymous
}

// StatusPolicy picks the initial moderation status of a new comment.
type StatusPolicy func(SubmitInput) store.Status

// AutoApprove publishes every comment immediately.
func AutoApprove(SubmitInput) store.Status { return store.StatusApproved }

// HoldForReview queues every comment for an administrator.
func HoldForReview(SubmitInput) store.Status { return store.StatusPending }
