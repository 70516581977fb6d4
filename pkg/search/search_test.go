package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/filter"
)

type mockSearcher struct {
	posts []domain.Post
	err   error
	query Query
}

func (m *mockSearcher) Search(ctx context.Context, q Query) ([]domain.Post, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.posts, nil
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("streamable.com", "[Highlight]")
	if got != "url:streamable.com AND title:'[Highlight]'" {
		t.Errorf("Unexpected query: %s", got)
	}
}

func TestSearchInWindow_FiltersAndKeepsOrder(t *testing.T) {
	window, err := domain.NewTimeWindow(2025, 5, 22, 8, 9, time.UTC)
	if err != nil {
		t.Fatalf("NewTimeWindow failed: %v", err)
	}

	searcher := &mockSearcher{posts: []domain.Post{
		{Title: "too new", URL: "https://streamable.com/1", CreatedAt: window.End.Add(time.Minute)},
		{Title: "B", URL: "https://streamable.com/2", CreatedAt: window.Start.Add(40 * time.Minute)},
		{Title: "A", URL: "https://streamable.com/3", CreatedAt: window.Start.Add(50 * time.Minute)},
		{Title: "wrong host", URL: "https://youtube.com/4", CreatedAt: window.Start.Add(45 * time.Minute)},
		{Title: "too old", URL: "https://streamable.com/5", CreatedAt: window.Start.Add(-time.Minute)},
	}}

	q := Query{Forum: "nba", Text: BuildQuery("streamable.com", "[Highlight]")}
	posts, err := SearchInWindow(context.Background(), searcher, q, window, filter.NewLinkDomainFilter("streamable.com"))
	if err != nil {
		t.Fatalf("SearchInWindow failed: %v", err)
	}

	if searcher.query != q {
		t.Errorf("Expected query %+v to be passed through, got %+v", q, searcher.query)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "B" || posts[1].Title != "A" {
		t.Errorf("Expected search order B, A; got %s, %s", posts[0].Title, posts[1].Title)
	}
}

func TestSearchInWindow_SearchUnavailable(t *testing.T) {
	window, _ := domain.NewTimeWindow(2025, 5, 22, 8, 9, time.UTC)
	cause := errors.New("dial tcp: connection refused")

	_, err := SearchInWindow(context.Background(), &mockSearcher{err: cause}, Query{Forum: "nba"}, window)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected original cause to be kept, got: %v", err)
	}
}
