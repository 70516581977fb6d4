package filter

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"highlight-dl/pkg/domain"
)

// Filter defines the interface for post filtering
type Filter interface {
	ShouldKeep(ctx context.Context, post domain.Post) (bool, error)
}

// FilterPosts applies all filters to a list of posts, preserving their order
func FilterPosts(ctx context.Context, posts []domain.Post, filters ...Filter) ([]domain.Post, error) {
	filtered := make([]domain.Post, 0, len(posts))

	for _, post := range posts {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, post)
			if err != nil {
				return nil, fmt.Errorf("filter error for post %s: %w", post.URL, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, post)
		}
	}

	return filtered, nil
}

// TimeWindowFilter keeps posts created inside a window, both ends included
type TimeWindowFilter struct {
	window domain.TimeWindow
}

// NewTimeWindowFilter creates a new time window filter
func NewTimeWindowFilter(window domain.TimeWindow) *TimeWindowFilter {
	return &TimeWindowFilter{window: window}
}

// ShouldKeep returns true if start <= post.CreatedAt <= end
func (f *TimeWindowFilter) ShouldKeep(ctx context.Context, post domain.Post) (bool, error) {
	return f.window.Contains(post.CreatedAt), nil
}

// LinkDomainFilter keeps posts whose external link points at a given host (or a subdomain of it)
type LinkDomainFilter struct {
	domain string
}

// NewLinkDomainFilter creates a new link domain filter, e.g. for "streamable.com"
func NewLinkDomainFilter(domain string) *LinkDomainFilter {
	return &LinkDomainFilter{domain: strings.ToLower(strings.TrimPrefix(domain, "www."))}
}

// ShouldKeep returns true if the post URL host is the domain or a subdomain of it
func (f *LinkDomainFilter) ShouldKeep(ctx context.Context, post domain.Post) (bool, error) {
	parsed, err := url.Parse(post.URL)
	if err != nil {
		// Unparseable links are dropped; they could never be fetched
		return false, nil
	}

	host := strings.ToLower(parsed.Hostname())
	return host == f.domain || strings.HasSuffix(host, "."+f.domain), nil
}

// Order is the policy used to arrange filtered posts before truncation
type Order string

const (
	// OrderSearch keeps the search capability's own ranking
	OrderSearch Order = "search"
	// OrderNewest sorts by creation time, newest first
	OrderNewest Order = "newest"
	// OrderOldest sorts by creation time, oldest first
	OrderOldest Order = "oldest"
)

// ParseOrder validates an order policy name ("" means OrderSearch)
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderSearch:
		return OrderSearch, nil
	case OrderNewest:
		return OrderNewest, nil
	case OrderOldest:
		return OrderOldest, nil
	default:
		return "", fmt.Errorf("unknown order policy %q (want search, newest or oldest)", s)
	}
}

// Arrange returns posts in the given order. Sorting is stable, so ties keep search order.
// The input slice is not modified.
func Arrange(posts []domain.Post, order Order) []domain.Post {
	arranged := make([]domain.Post, len(posts))
	copy(arranged, posts)

	switch order {
	case OrderNewest:
		sort.SliceStable(arranged, func(i, j int) bool {
			return arranged[i].CreatedAt.After(arranged[j].CreatedAt)
		})
	case OrderOldest:
		sort.SliceStable(arranged, func(i, j int) bool {
			return arranged[i].CreatedAt.Before(arranged[j].CreatedAt)
		})
	}
	return arranged
}

// Truncate keeps at most max posts; max <= 0 means no limit
func Truncate(posts []domain.Post, max int) []domain.Post {
	if max <= 0 || len(posts) <= max {
		return posts
	}
	return posts[:max]
}
