package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/filter"
	"highlight-dl/pkg/search"
)

const (
	// DefaultMaxCandidates is how many matching posts a run processes.
	DefaultMaxCandidates = 2
	// DefaultStartHour and DefaultEndHour bound the window when no hours are given.
	DefaultStartHour = 6
	DefaultEndHour   = 9
	// DefaultForum is searched when the request names none.
	DefaultForum = "nba"
)

// DefaultQuery finds streamable links posted as highlights.
var DefaultQuery = search.BuildQuery("streamable.com", "[Highlight]")

// Request selects the calendar day, hours and forum of one run.
type Request struct {
	Year      int
	Month     int
	Day       int
	StartHour int
	EndHour   int
	Forum     string
}

// Options tune a Pipeline. Zero values fall back to the defaults above.
type Options struct {
	MaxCandidates int
	Order         filter.Order
	Query         string
	Location      *time.Location  // window timezone, time.Local when nil
	Filters       []filter.Filter // applied after the window filter
}

// Pipeline orchestrates search, filtering and per-post processing for one run
type Pipeline struct {
	searcher  search.Searcher
	processor *HighlightProcessor
	saver     RecordSaver
	opts      Options
	newRunID  func() string
}

// NewPipeline creates a new pipeline. saver may be nil to skip the catalog.
func NewPipeline(searcher search.Searcher, processor *HighlightProcessor, saver RecordSaver, opts Options) *Pipeline {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.Order == "" {
		opts.Order = filter.OrderSearch
	}
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Pipeline{
		searcher:  searcher,
		processor: processor,
		saver:     saver,
		opts:      opts,
		newRunID:  uuid.NewString,
	}
}

// Run executes the pipeline:
// 1. Builds the time window for the requested day and hours
// 2. Searches, filters by window, orders and truncates to MaxCandidates
// 3. Processes each remaining post in turn; a failed post does not stop the run
// 4. Logs and returns the summary
//
// Only an invalid date or an unavailable search capability returns an error.
// A cancelled context stops the loop and returns the partial summary with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, req Request) (domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: p.newRunID()}
	prefix := fmt.Sprintf("Pipeline [run %s]", summary.RunID)

	if req.Forum == "" {
		req.Forum = DefaultForum
	}

	window, err := domain.NewTimeWindow(req.Year, req.Month, req.Day, req.StartHour, req.EndHour, p.opts.Location)
	if err != nil {
		log.Printf("%s: %v", prefix, err)
		return summary, err
	}
	log.Printf("%s: Searching r/%s between %s", prefix, req.Forum, window)

	posts, err := p.candidates(ctx, req.Forum, window)
	if err != nil {
		log.Printf("%s: %v", prefix, err)
		return summary, err
	}

	log.Printf("Found %d matching posts.", len(posts))

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			log.Printf("%s: Context cancelled after %d/%d posts", prefix, i, len(posts))
			return summary, err
		}

		outcome := p.processor.Process(ctx, post)
		summary.Record(outcome)

		if !outcome.Success {
			log.Printf("%s: Post %s failed (%s)", prefix, post.ID, outcome.Failure)
			continue
		}
		p.saveRecord(ctx, prefix, summary.RunID, req.Forum, outcome)
	}

	log.Printf("Successfully downloaded %d/%d videos.", summary.Succeeded, summary.Attempted)
	return summary, nil
}

// candidates returns the posts to process, already capped.
func (p *Pipeline) candidates(ctx context.Context, forum string, window domain.TimeWindow) ([]domain.Post, error) {
	query := search.Query{Forum: forum, Text: p.opts.Query}

	matching, err := search.SearchInWindow(ctx, p.searcher, query, window, p.opts.Filters...)
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}

	ordered := filter.Arrange(matching, p.opts.Order)
	return filter.Truncate(ordered, p.opts.MaxCandidates), nil
}

// saveRecord writes the catalog entry. Failures are logged only.
func (p *Pipeline) saveRecord(ctx context.Context, prefix, runID, forum string, outcome domain.PostOutcome) {
	if p.saver == nil {
		return
	}
	record := NewHighlightRecord(runID, forum, outcome)
	if err := p.saver.SaveHighlight(ctx, record); err != nil {
		log.Printf("%s: Error saving catalog record for %s: %v", prefix, record.Path, err)
	}
}
