package domain

import (
	"fmt"
	"time"
)

// ItemStatus is the posting lifecycle state of a composed item.
type ItemStatus string

const (
	StatusPending          ItemStatus = "pending"
	StatusCreated          ItemStatus = "created"
	StatusPosted           ItemStatus = "posted"
	StatusFailed           ItemStatus = "failed"
	StatusCreatedNotPosted ItemStatus = "created_not_posted"
)

var statusTransitions = map[ItemStatus][]ItemStatus{
	StatusPending: {StatusCreated, StatusFailed},
	StatusCreated: {StatusPosted, StatusCreatedNotPosted},
}

// CanTransition reports whether moving from the current status to next is a
// legal lifecycle step.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ComposedItem is one length-bounded post chunk produced from a diff entry.
// Chunks split from the same point share a ThreadID and are numbered
// ThreadPart/TotalThreadParts; TotalThreadParts == 1 means a standalone post.
type ComposedItem struct {
	ID               string     `json:"id"`
	Section          Section    `json:"section"`
	ChangeType       ChangeType `json:"change_type"`
	ContentRaw       string     `json:"content_raw"`
	ContentFormatted string     `json:"content_formatted"`
	ThreadID         string     `json:"thread_id"`
	ThreadPart       int        `json:"thread_part"`
	TotalThreadParts int        `json:"total_thread_parts"`
	Status           ItemStatus `json:"status"`
	SimilarityScore  *float64   `json:"similarity_score,omitempty"`
	TwitterID        string     `json:"twitter_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
}

// Transition mutates Status, rejecting steps the lifecycle does not allow.
func (c *ComposedItem) Transition(next ItemStatus) error {
	if !c.Status.CanTransition(next) {
		return fmt.Errorf("invalid status transition %s -> %s for item %s", c.Status, next, c.ID)
	}
	c.Status = next
	return nil
}
