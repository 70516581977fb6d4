package search

import (
	"context"
	"errors"
	"fmt"
	"log"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/filter"
)

// Query is what gets sent to the post-search capability.
type Query struct {
	Forum string // subreddit name, without the "r/" prefix
	Text  string // lucene query
}

// Searcher is the external post-search capability.
// Results come back newest-first according to the capability's own ranking.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]domain.Post, error)
}

// BuildQuery combines the required link-domain and title-token constraints.
func BuildQuery(linkDomain, titleToken string) string {
	return fmt.Sprintf("url:%s AND title:'%s'", linkDomain, titleToken)
}

// SearchInWindow runs the query and keeps the posts created inside window.
// Extra filters run after the window filter. The searcher's order is kept and
// no limit is applied. Any searcher failure is reported as ErrSearchUnavailable.
func SearchInWindow(ctx context.Context, s Searcher, q Query, window domain.TimeWindow, extra ...filter.Filter) ([]domain.Post, error) {
	posts, err := s.Search(ctx, q)
	if err != nil {
		if !errors.Is(err, domain.ErrSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return nil, err
	}
	log.Printf("Search: %d results for %q in r/%s", len(posts), q.Text, q.Forum)

	filters := append([]filter.Filter{filter.NewTimeWindowFilter(window)}, extra...)
	matching, err := filter.FilterPosts(ctx, posts, filters...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter posts: %w", err)
	}

	log.Printf("Search: %d results inside %s", len(matching), window)
	return matching, nil
}
