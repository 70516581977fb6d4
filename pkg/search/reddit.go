package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/httpclient"
)

const (
	DefaultAuthURL   = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL    = "https://oauth.reddit.com"
	DefaultUserAgent = "Finding streamable links"

	// Reddit listings stop at 1000 items, i.e. 10 pages of 100.
	DefaultMaxPages = 10
	maxPageSize     = 100
)

// Credentials authenticate a Reddit "script" application.
// They are always passed in explicitly.
type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Validate reports which required credential is missing.
func (c Credentials) Validate() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("reddit credentials missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RedditOptions tune the API client. Zero values mean defaults.
type RedditOptions struct {
	AuthURL  string
	APIURL   string
	MaxPages int
	// PageInterval is the minimum spacing between listing requests.
	PageInterval time.Duration
	Timeout      time.Duration
}

// RedditClient implements Searcher on Reddit's OAuth API.
type RedditClient struct {
	creds    Credentials
	client   *httpclient.HTTPClient
	apiURL   string
	maxPages int
	limiter  *rate.Limiter

	oauth      *oauth2.Config
	authClient *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewRedditClient creates an API client. Credentials are validated here; the
// token itself is requested lazily on the first search.
func NewRedditClient(creds Credentials, opts RedditOptions) (*RedditClient, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if creds.UserAgent == "" {
		creds.UserAgent = DefaultUserAgent
	}
	if opts.AuthURL == "" {
		opts.AuthURL = DefaultAuthURL
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.PageInterval <= 0 {
		opts.PageInterval = time.Second
	}

	client := httpclient.NewClientWithUserAgent(creds.UserAgent, opts.Timeout)

	return &RedditClient{
		creds:    creds,
		client:   client,
		apiURL:   strings.TrimRight(opts.APIURL, "/"),
		maxPages: opts.MaxPages,
		limiter:  rate.NewLimiter(rate.Every(opts.PageInterval), 1),
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.AuthURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		authClient: client.Standard(),
	}, nil
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				URL        string  `json:"url"`
				Permalink  string  `json:"permalink"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search pages through r/<forum>/search sorted by new, following the "after"
// cursor until it runs out or MaxPages pages have been read.
func (c *RedditClient) Search(ctx context.Context, q Query) ([]domain.Post, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}

	var posts []domain.Post
	after := ""
	for page := 0; page < c.maxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		listing, err := c.fetchPage(ctx, token, q, after)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}

		for _, child := range listing.Data.Children {
			posts = append(posts, domain.Post{
				ID:        child.Data.ID,
				Title:     child.Data.Title,
				URL:       child.Data.URL,
				Permalink: child.Data.Permalink,
				CreatedAt: unixFloat(child.Data.CreatedUTC),
			})
		}

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 {
			break
		}
	}

	log.Printf("RedditClient: Fetched %d posts from r/%s", len(posts), q.Forum)
	return posts, nil
}

func (c *RedditClient) fetchPage(ctx context.Context, token string, q Query, after string) (*listingResponse, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("sort", "new")
	params.Set("syntax", "lucene")
	params.Set("restrict_sr", "1")
	params.Set("limit", fmt.Sprint(maxPageSize))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}

	endpoint := fmt.Sprintf("%s/r/%s/search?%s", c.apiURL, url.PathEscape(q.Forum), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode search listing: %w", err)
	}
	return &listing, nil
}

// accessToken returns the cached bearer token, requesting a new one with the
// password grant when none is cached or it has expired.
func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.authClient)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, c.creds.Username, c.creds.Password)
	if err != nil {
		return "", fmt.Errorf("token request rejected: %w", err)
	}

	c.token = tok
	return tok.AccessToken, nil
}

func unixFloat(seconds float64) time.Time {
	whole := int64(seconds)
	frac := int64((seconds - float64(whole)) * float64(time.Second))
	return time.Unix(whole, frac)
}
