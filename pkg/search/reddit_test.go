package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"highlight-dl/pkg/domain"
)

func testCredentials() Credentials {
	return Credentials{
		Username:     "bot",
		Password:     "hunter2",
		ClientID:     "client",
		ClientSecret: "secret",
		UserAgent:    "highlight-dl test",
	}
}

type listingChild struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

func writeListing(w http.ResponseWriter, after string, children ...listingChild) {
	type wrapped struct {
		Kind string       `json:"kind"`
		Data listingChild `json:"data"`
	}
	items := make([]wrapped, 0, len(children))
	for _, c := range children {
		items = append(items, wrapped{Kind: "t3", Data: c})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"kind": "Listing",
		"data": map[string]any{"after": after, "children": items},
	})
}

func newRedditServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *int) {
	t.Helper()
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != "highlight-dl test" {
			t.Errorf("Unexpected token request User-Agent: %s", r.Header.Get("User-Agent"))
		}
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("grant_type") != "password" || r.Form.Get("password") != "hunter2" {
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/r/nba/search", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenRequests
}

func newTestRedditClient(t *testing.T, server *httptest.Server, creds Credentials, maxPages int) *RedditClient {
	t.Helper()
	client, err := NewRedditClient(creds, RedditOptions{
		AuthURL:      server.URL + "/api/v1/access_token",
		APIURL:       server.URL,
		MaxPages:     maxPages,
		PageInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRedditClient failed: %v", err)
	}
	return client
}

func TestRedditClient_Search_Paginates(t *testing.T) {
	created := time.Date(2025, 5, 22, 8, 30, 0, 0, time.UTC)
	var seenAfter []string

	server, tokenRequests := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != "highlight-dl test" {
			t.Errorf("Unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		q := r.URL.Query()
		if q.Get("sort") != "new" || q.Get("syntax") != "lucene" || q.Get("restrict_sr") != "1" {
			t.Errorf("Unexpected search parameters: %s", r.URL.RawQuery)
		}
		if q.Get("q") != "url:streamable.com AND title:'[Highlight]'" {
			t.Errorf("Unexpected query: %s", q.Get("q"))
		}

		after := q.Get("after")
		seenAfter = append(seenAfter, after)
		switch after {
		case "":
			writeListing(w, "t3_b",
				listingChild{ID: "a", Title: "[Highlight] A", URL: "https://streamable.com/a", Permalink: "/r/nba/comments/a/", CreatedUTC: float64(created.Unix()) + 0.5},
				listingChild{ID: "b", Title: "[Highlight] B", URL: "https://streamable.com/b", CreatedUTC: float64(created.Add(-time.Minute).Unix())},
			)
		case "t3_b":
			writeListing(w, "", listingChild{ID: "c", Title: "[Highlight] C", URL: "https://streamable.com/c", CreatedUTC: float64(created.Add(-time.Hour).Unix())})
		default:
			t.Errorf("Unexpected after cursor: %s", after)
		}
	})

	client := newTestRedditClient(t, server, testCredentials(), 0)
	query := Query{Forum: "nba", Text: BuildQuery("streamable.com", "[Highlight]")}
	posts, err := client.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(posts) != 3 {
		t.Fatalf("Expected 3 posts, got %d", len(posts))
	}
	if posts[0].Title != "[Highlight] A" || posts[2].Title != "[Highlight] C" {
		t.Errorf("Unexpected post order: %+v", posts)
	}
	if posts[0].URL != "https://streamable.com/a" || posts[0].Permalink != "/r/nba/comments/a/" {
		t.Errorf("Unexpected post fields: %+v", posts[0])
	}
	if !posts[0].CreatedAt.Equal(created.Add(500 * time.Millisecond)) {
		t.Errorf("Expected created %v, got %v", created.Add(500*time.Millisecond), posts[0].CreatedAt)
	}
	if len(seenAfter) != 2 || seenAfter[0] != "" || seenAfter[1] != "t3_b" {
		t.Errorf("Expected page requests with cursors [\"\" t3_b], got %q", seenAfter)
	}
	if *tokenRequests != 1 {
		t.Errorf("Expected 1 token request, got %d", *tokenRequests)
	}

	// token is cached across searches
	if _, err := client.Search(context.Background(), query); err != nil {
		t.Fatalf("second Search failed: %v", err)
	}
	if *tokenRequests != 1 {
		t.Errorf("Expected token to be reused, got %d token requests", *tokenRequests)
	}
}

func TestRedditClient_Search_MaxPages(t *testing.T) {
	pages := 0
	server, _ := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		pages++
		writeListing(w, fmt.Sprintf("t3_%d", pages), listingChild{ID: fmt.Sprint(pages), Title: "x", CreatedUTC: 1})
	})

	client := newTestRedditClient(t, server, testCredentials(), 3)
	posts, err := client.Search(context.Background(), Query{Forum: "nba", Text: "x"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if pages != 3 || len(posts) != 3 {
		t.Errorf("Expected 3 pages and 3 posts, got %d pages and %d posts", pages, len(posts))
	}
}

func TestRedditClient_Search_BadPassword(t *testing.T) {
	server, _ := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("search endpoint must not be called without a token")
	})

	creds := testCredentials()
	creds.Password = "wrong"
	client := newTestRedditClient(t, server, creds, 0)

	_, err := client.Search(context.Background(), Query{Forum: "nba", Text: "x"})
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("Expected ErrSearchUnavailable, got: %v", err)
	}
	if !strings.Contains(err.Error(), "token request rejected") {
		t.Errorf("Expected token rejection in error, got: %v", err)
	}
}

func TestRedditClient_Search_BadClientSecret(t *testing.T) {
	server, _ := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {})

	creds := testCredentials()
	creds.ClientSecret = "nope"
	client := newTestRedditClient(t, server, creds, 0)

	if _, err := client.Search(context.Background(), Query{Forum: "nba", Text: "x"}); !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got: %v", err)
	}
}

func TestRedditClient_Search_ServerError(t *testing.T) {
	server, _ := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := newTestRedditClient(t, server, testCredentials(), 0)
	if _, err := client.Search(context.Background(), Query{Forum: "nba", Text: "x"}); !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got: %v", err)
	}
}

func TestRedditClient_Search_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewRedditClient(testCredentials(), RedditOptions{AuthURL: url + "/token", APIURL: url})
	if err != nil {
		t.Fatalf("NewRedditClient failed: %v", err)
	}
	if _, err := client.Search(context.Background(), Query{Forum: "nba", Text: "x"}); !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("Expected ErrSearchUnavailable, got: %v", err)
	}
}

func TestNewRedditClient_MissingCredentials(t *testing.T) {
	_, err := NewRedditClient(Credentials{Username: "bot"}, RedditOptions{})
	if err == nil {
		t.Fatal("Expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "password") || !strings.Contains(err.Error(), "client secret") {
		t.Errorf("Expected missing fields to be named, got: %v", err)
	}
}

func TestNewRedditClient_DefaultUserAgent(t *testing.T) {
	creds := testCredentials()
	creds.UserAgent = ""
	client, err := NewRedditClient(creds, RedditOptions{})
	if err != nil {
		t.Fatalf("NewRedditClient failed: %v", err)
	}
	if client.creds.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got '%s'", client.creds.UserAgent)
	}
}
