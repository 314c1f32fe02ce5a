package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"brainlift_tracker/internal/compose"
	"brainlift_tracker/internal/diff"
	"brainlift_tracker/internal/domain"
	"brainlift_tracker/internal/locator"
	"brainlift_tracker/internal/outline"
)

const (
	storageWriteAttempts = 3
	storageWriteBackoff  = 500 * time.Millisecond
)

// sections in processing order.
var sections = []domain.Section{domain.SectionDOK4, domain.SectionDOK3}

// PipelineConfig tunes one project run.
type PipelineConfig struct {
	StateTTL time.Duration
}

// Pipeline executes one project's full run: locate sections, parse points,
// diff against stored state, compose posts, post them, persist snapshots and
// the new state. Steps are strictly sequential within a run.
type Pipeline struct {
	source    ContentSource
	locator   SectionLocator
	states    StateStore
	snapshots SnapshotStore
	poster    Poster
	publisher EventPublisher
	differ    *diff.Engine
	composer  *compose.Composer
	logger    *slog.Logger
	cfg       PipelineConfig
	now       func() time.Time
}

func NewPipeline(
	source ContentSource,
	sectionLocator SectionLocator,
	states StateStore,
	snapshots SnapshotStore,
	poster Poster,
	publisher EventPublisher,
	differ *diff.Engine,
	composer *compose.Composer,
	logger *slog.Logger,
	cfg PipelineConfig,
) *Pipeline {
	return &Pipeline{
		source:    source,
		locator:   sectionLocator,
		states:    states,
		snapshots: snapshots,
		poster:    poster,
		publisher: publisher,
		differ:    differ,
		composer:  composer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

type scrapedSnapshot struct {
	ProjectID string         `json:"project_id"`
	Timestamp time.Time      `json:"timestamp"`
	DOK4      []domain.Point `json:"dok4"`
	DOK3      []domain.Point `json:"dok3"`
}

type tweetsSnapshot struct {
	ProjectID string                `json:"project_id"`
	Timestamp time.Time             `json:"timestamp"`
	Items     []domain.ComposedItem `json:"items"`
}

// Run executes the pipeline for one project and reports a structured result.
// Errors never escape: every failure mode lands in the result.
func (p *Pipeline) Run(ctx context.Context, project domain.Project) domain.ProjectResult {
	start := p.now()
	logger := p.logger.With("project_id", project.ProjectID, "project_name", project.Name)

	result := domain.ProjectResult{
		ProjectID: project.ProjectID,
		Status:    domain.RunSuccess,
	}
	fail := func(err error) domain.ProjectResult {
		logger.Error("project run failed", "error", err)
		result.Status = domain.RunError
		result.Error = err.Error()
		result.Duration = p.now().Sub(start)
		return result
	}

	current, located, err := p.scrape(ctx, project, logger)
	if err != nil {
		return fail(err)
	}

	previous, firstRun, err := p.loadPrevious(ctx, project.ProjectID)
	if err != nil {
		return fail(fmt.Errorf("load state: %w", err))
	}
	result.FirstRun = firstRun

	degraded := false
	if err := p.writeScrapedSnapshot(ctx, project.ProjectID, current); err != nil {
		logger.Warn("scraped snapshot write failed", "error", err)
		degraded = true
	}

	if firstRun {
		// Baseline: persist the point-set, emit nothing.
		if err := p.writeState(ctx, project.ProjectID, current); err != nil {
			return fail(fmt.Errorf("write baseline state: %w", err))
		}
		logger.Info("baseline established",
			"dok4_points", len(current.DOK4),
			"dok3_points", len(current.DOK3),
		)
		if degraded {
			result.Status = domain.RunPartial
		}
		result.Duration = p.now().Sub(start)
		return result
	}

	stats := domain.DiffStats{}
	var items []domain.ComposedItem
	for _, section := range sections {
		// A section the locator missed is skipped for this run: the stored
		// points stay authoritative, nothing is diffed or posted for it.
		if !located[section] {
			current.SetPoints(section, previous.Points(section))
			continue
		}
		d := p.differ.Diff(previous.Points(section), current.Points(section))
		stats.Unchanged += d.Stats.Unchanged
		stats.Added += d.Stats.Added
		stats.Updated += d.Stats.Updated
		stats.Deleted += d.Stats.Deleted
		items = append(items, p.composer.Compose(d, section, false)...)
	}
	result.Stats = &stats

	logger.Info("diff computed",
		"unchanged", stats.Unchanged,
		"added", stats.Added,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
	)

	if len(items) > 0 {
		if err := p.writeTweetsSnapshot(ctx, project.ProjectID, items); err != nil {
			logger.Warn("tweets snapshot write failed", "error", err)
			degraded = true
		}

		items = p.poster.Post(ctx, items, project.AccountID)
		for _, item := range items {
			switch item.Status {
			case domain.StatusPosted:
				result.Posted++
			case domain.StatusFailed, domain.StatusCreatedNotPosted:
				result.Failed++
			}
		}

		if err := p.writeTweetsSnapshot(ctx, project.ProjectID, items); err != nil {
			logger.Warn("updated tweets snapshot write failed", "error", err)
			degraded = true
		}
	}

	if err := p.writeState(ctx, project.ProjectID, current); err != nil {
		return fail(fmt.Errorf("write state: %w", err))
	}

	if result.Failed > 0 || degraded {
		result.Status = domain.RunPartial
	}
	result.Duration = p.now().Sub(start)

	if p.publisher != nil {
		if err := p.publisher.PublishDiff(ctx, project.ProjectID, result); err != nil {
			logger.Warn("diff event publish failed", "error", err)
		}
	}

	logger.Info("project run completed",
		"status", result.Status,
		"posted", result.Posted,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result
}

// scrape downloads the outline and parses the tracked sections into the
// current point-set. A section the locator cannot find is absent from the
// returned located set, not fatal.
func (p *Pipeline) scrape(ctx context.Context, project domain.Project, logger *slog.Logger) (*domain.ProjectState, map[domain.Section]bool, error) {
	session, err := p.source.Authenticate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("authenticate: %w", err)
	}

	shareID := ShareIDFromURL(project.URL)
	if shareID == "" {
		return nil, nil, fmt.Errorf("no share id in project url %q", project.URL)
	}

	resolved, err := p.source.ResolveAuxShareID(ctx, session, shareID)
	if err != nil {
		logger.Warn("aux share id resolution failed, using root", "error", err)
		resolved = shareID
	}

	nodes, err := p.source.FetchTree(ctx, session, resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch tree: %w", err)
	}

	current := domain.NewProjectState(project.ProjectID)
	located := make(map[domain.Section]bool, len(sections))
	for _, section := range sections {
		ids, err := p.locator.Locate(ctx, string(section), nodes)
		if err != nil {
			if errors.Is(err, locator.ErrNoMatch) {
				logger.Warn("section not found, skipping", "section", section)
				continue
			}
			return nil, nil, fmt.Errorf("locate section %s: %w", section, err)
		}
		located[section] = true

		raw := RenderSectionText(nodes, ids)
		points, title := outline.Parse(raw, section)
		logger.Debug("parsed section",
			"section", section,
			"title", title,
			"points", len(points),
		)
		current.SetPoints(section, points)
	}
	return current, located, nil
}

func (p *Pipeline) loadPrevious(ctx context.Context, projectID string) (*domain.ProjectState, bool, error) {
	state, err := p.states.Get(ctx, projectID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return state, false, nil
}

func (p *Pipeline) writeState(ctx context.Context, projectID string, state *domain.ProjectState) error {
	state.ProjectID = projectID
	return p.retryWrite(ctx, func() error {
		return p.states.Put(ctx, state, p.cfg.StateTTL)
	})
}

func (p *Pipeline) writeScrapedSnapshot(ctx context.Context, projectID string, state *domain.ProjectState) error {
	payload, err := json.Marshal(scrapedSnapshot{
		ProjectID: projectID,
		Timestamp: p.now().UTC(),
		DOK4:      state.DOK4,
		DOK3:      state.DOK3,
	})
	if err != nil {
		return fmt.Errorf("marshal scraped snapshot: %w", err)
	}
	return p.retryWrite(ctx, func() error {
		return p.snapshots.Put(ctx, projectID, domain.SnapshotKindScraped, p.now().UTC(), payload)
	})
}

func (p *Pipeline) writeTweetsSnapshot(ctx context.Context, projectID string, items []domain.ComposedItem) error {
	payload, err := json.Marshal(tweetsSnapshot{
		ProjectID: projectID,
		Timestamp: p.now().UTC(),
		Items:     items,
	})
	if err != nil {
		return fmt.Errorf("marshal tweets snapshot: %w", err)
	}
	return p.retryWrite(ctx, func() error {
		return p.snapshots.Put(ctx, projectID, domain.SnapshotKindTweets, p.now().UTC(), payload)
	})
}

// retryWrite retries idempotent point writes with exponential backoff. All
// pipeline writes are keyed by project id, so replaying one is safe.
func (p *Pipeline) retryWrite(ctx context.Context, write func() error) error {
	backoff := storageWriteBackoff
	var err error
	for attempt := 1; attempt <= storageWriteAttempts; attempt++ {
		if err = write(); err == nil {
			return nil
		}
		if attempt == storageWriteAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("after %d attempts: %w", storageWriteAttempts, err)
}

// ShareIDFromURL extracts the document share id: the last non-empty path
// segment, queries and fragments stripped.
func ShareIDFromURL(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return trimmed
}

// RenderSectionText flattens the subtrees rooted at the located node ids
// back into indented bullet text for the parser. Children are ordered by the
// source's order field; node notes become extra sub-lines.
func RenderSectionText(nodes []domain.Node, rootIDs []string) string {
	children := make(map[string][]domain.Node)
	for _, n := range nodes {
		children[n.ParentID] = append(children[n.ParentID], n)
	}
	for _, siblings := range children {
		sort.SliceStable(siblings, func(a, b int) bool {
			return siblings[a].Order < siblings[b].Order
		})
	}

	var b strings.Builder
	var render func(parentID string, depth int)
	render = func(parentID string, depth int) {
		for _, n := range children[parentID] {
			indent := strings.Repeat("  ", depth)
			fmt.Fprintf(&b, "%s- %s\n", indent, n.Name)
			if note := strings.TrimSpace(n.Note); note != "" {
				fmt.Fprintf(&b, "%s  - %s\n", indent, note)
			}
			render(n.ID, depth+1)
		}
	}
	for _, rootID := range rootIDs {
		render(rootID, 0)
	}
	return b.String()
}
