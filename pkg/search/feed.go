package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"highlight-dl/pkg/domain"
)

// DefaultFeedBaseURL serves the public Atom search feeds.
const DefaultFeedBaseURL = "https://www.reddit.com"

// FeedSearcher implements Searcher on Reddit's public Atom search feed.
// It needs no credentials but only sees the first page of results.
type FeedSearcher struct {
	baseURL    string
	feedParser *gofeed.Parser
}

// NewFeedSearcher creates a feed searcher. An empty baseURL means DefaultFeedBaseURL;
// an empty userAgent means DefaultUserAgent.
func NewFeedSearcher(baseURL, userAgent string, timeout time.Duration) *FeedSearcher {
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	if timeout > 0 {
		parser.Client = &http.Client{Timeout: timeout}
	}

	return &FeedSearcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		feedParser: parser,
	}
}

// Search fetches and parses the search feed for q.
func (s *FeedSearcher) Search(ctx context.Context, q Query) ([]domain.Post, error) {
	feedURL := s.feedURL(q)
	log.Printf("FeedSearcher: Fetching %s", feedURL)

	feed, err := s.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse search feed: %w", domain.ErrSearchUnavailable, err)
	}

	posts := make([]domain.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		created := item.PublishedParsed
		if created == nil {
			created = item.UpdatedParsed
		}
		if created == nil {
			log.Printf("FeedSearcher: Skipping entry without a date: %s", item.Link)
			continue
		}

		posts = append(posts, domain.Post{
			ID:        strings.TrimPrefix(item.GUID, "t3_"),
			Title:     item.Title,
			URL:       externalLink(item),
			Permalink: item.Link,
			CreatedAt: *created,
		})
	}

	log.Printf("FeedSearcher: Parsed %d posts from r/%s", len(posts), q.Forum)
	return posts, nil
}

func (s *FeedSearcher) feedURL(q Query) string {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("sort", "new")
	params.Set("syntax", "lucene")
	params.Set("restrict_sr", "on")
	params.Set("limit", fmt.Sprint(maxPageSize))
	return fmt.Sprintf("%s/r/%s/search.rss?%s", s.baseURL, url.PathEscape(q.Forum), params.Encode())
}

// externalLink returns the href of the "[link]" anchor Reddit puts in each
// entry's HTML content; self posts have none and fall back to the permalink.
func externalLink(item *gofeed.Item) string {
	if item.Content != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Content))
		if err == nil {
			var href string
			doc.Find("a").EachWithBreak(func(i int, a *goquery.Selection) bool {
				if strings.TrimSpace(a.Text()) == "[link]" {
					href, _ = a.Attr("href")
					return false
				}
				return true
			})
			if href != "" {
				return href
			}
		}
	}
	return item.Link
}
