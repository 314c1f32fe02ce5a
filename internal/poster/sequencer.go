// Package poster drives composed items through the external posting API,
// preserving reply-chain order within threads and respecting per-account
// rate limits.
package poster

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"brainlift_tracker/internal/domain"
)

// API is the posting backend. Thread calls treat the whole reply chain as
// one unit; CreateThread returns the thread handle plus the per-part tweet
// ids in ThreadPart order.
type API interface {
	CreateTweet(ctx context.Context, text, accountID string) (string, error)
	PostTweet(ctx context.Context, tweetID string) error
	CreateThread(ctx context.Context, texts []string, accountID string) (string, []string, error)
	PostThread(ctx context.Context, threadID string) (posted, failed int, err error)
}

// Limiter gates create calls per account.
type Limiter interface {
	Allow(accountID string) bool
}

// Sequencer posts composed items in thread order. Failures are scoped: a
// failed reply halts the remainder of its own thread only, and a rate-limit
// refusal leaves items pending for a later run.
type Sequencer struct {
	api     API
	limiter Limiter
	logger  *slog.Logger
	now     func() time.Time
}

func NewSequencer(api API, limiter Limiter, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		api:     api,
		limiter: limiter,
		logger:  logger.With("component", "poster"),
		now:     time.Now,
	}
}

// Post mutates item statuses in place and returns the same slice. Items are
// grouped by thread id in first-seen order; parts within a thread are posted
// in ascending ThreadPart order because each reply links to the previous
// post.
func (s *Sequencer) Post(ctx context.Context, items []domain.ComposedItem, accountID string) []domain.ComposedItem {
	for _, group := range groupByThread(items) {
		if s.limiter != nil && !s.limiter.Allow(accountID) {
			s.logger.Info("rate limit reached, leaving thread pending",
				"account_id", accountID,
				"thread_id", items[group[0]].ThreadID,
			)
			continue
		}
		if len(group) == 1 {
			s.postSingle(ctx, &items[group[0]], accountID)
		} else {
			s.postThread(ctx, items, group, accountID)
		}
	}
	return items
}

func (s *Sequencer) postSingle(ctx context.Context, item *domain.ComposedItem, accountID string) {
	tweetID, err := s.api.CreateTweet(ctx, item.ContentFormatted, accountID)
	if err != nil {
		s.logger.Warn("create tweet failed", "item_id", item.ID, "error", err)
		s.transition(item, domain.StatusFailed)
		return
	}
	item.TwitterID = tweetID
	s.transition(item, domain.StatusCreated)

	if err := s.api.PostTweet(ctx, tweetID); err != nil {
		s.logger.Warn("post tweet failed", "item_id", item.ID, "tweet_id", tweetID, "error", err)
		s.transition(item, domain.StatusCreatedNotPosted)
		return
	}
	s.markPosted(item)
}

func (s *Sequencer) postThread(ctx context.Context, items []domain.ComposedItem, group []int, accountID string) {
	texts := make([]string, len(group))
	for i, idx := range group {
		texts[i] = items[idx].ContentFormatted
	}

	threadID, tweetIDs, err := s.api.CreateThread(ctx, texts, accountID)
	if err != nil {
		s.logger.Warn("create thread failed",
			"thread_id", items[group[0]].ThreadID,
			"parts", len(group),
			"error", err,
		)
		for _, idx := range group {
			s.transition(&items[idx], domain.StatusFailed)
		}
		return
	}
	for i, idx := range group {
		if i < len(tweetIDs) {
			items[idx].TwitterID = tweetIDs[i]
		}
		s.transition(&items[idx], domain.StatusCreated)
	}

	posted, failed, err := s.api.PostThread(ctx, threadID)
	if err != nil {
		s.logger.Warn("post thread failed", "thread_id", threadID, "error", err)
		posted = 0
	}
	// The first failing reply halts the remainder of the chain: parts up to
	// the posted count went out, everything after stays created.
	for i, idx := range group {
		if i < posted {
			s.markPosted(&items[idx])
		} else {
			s.transition(&items[idx], domain.StatusCreatedNotPosted)
		}
	}
	if failed > 0 {
		s.logger.Warn("thread partially posted", "thread_id", threadID, "posted", posted, "failed", failed)
	}
}

func (s *Sequencer) markPosted(item *domain.ComposedItem) {
	s.transition(item, domain.StatusPosted)
	at := s.now().UTC()
	item.PostedAt = &at
}

func (s *Sequencer) transition(item *domain.ComposedItem, next domain.ItemStatus) {
	if err := item.Transition(next); err != nil {
		s.logger.Error("illegal item transition", "item_id", item.ID, "error", err)
	}
}

// groupByThread returns index groups per thread id, groups in first-seen
// order and indexes within a group sorted by ThreadPart.
func groupByThread(items []domain.ComposedItem) [][]int {
	var order []string
	byThread := make(map[string][]int)
	for i, item := range items {
		if _, ok := byThread[item.ThreadID]; !ok {
			order = append(order, item.ThreadID)
		}
		byThread[item.ThreadID] = append(byThread[item.ThreadID], i)
	}

	groups := make([][]int, 0, len(order))
	for _, id := range order {
		group := byThread[id]
		sort.Slice(group, func(a, b int) bool {
			return items[group[a]].ThreadPart < items[group[b]].ThreadPart
		})
		groups = append(groups, group)
	}
	return groups
}
