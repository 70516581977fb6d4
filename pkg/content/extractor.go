package content

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// VideoURLProperty is the Open Graph property naming the direct video asset.
const VideoURLProperty = "og:video:url"

// Extractor defines an interface for pulling the video URL and page title out of HTML content
type Extractor interface {
	ExtractVideoURL(htmlContent string) (string, bool)
	ExtractTitle(htmlContent string) (string, error)
}

// DefaultExtractor implements the Extractor interface using the standard extraction functions
type DefaultExtractor struct{}

// NewDefaultExtractor creates a new default extractor
func NewDefaultExtractor() *DefaultExtractor {
	return &DefaultExtractor{}
}

// ExtractVideoURL extracts the og:video:url value using the default extraction logic
func (e *DefaultExtractor) ExtractVideoURL(htmlContent string) (string, bool) {
	return ExtractVideoURL(htmlContent)
}

// ExtractTitle extracts the page title using the default extraction logic
func (e *DefaultExtractor) ExtractTitle(htmlContent string) (string, error) {
	return ExtractTitle(htmlContent)
}

// ExtractVideoURL returns the content of the first <meta property="og:video:url"> element.
// A missing element, an empty content attribute or unparseable markup all yield ("", false);
// extraction is best effort and never fails loudly.
func ExtractVideoURL(htmlContent string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		log.Printf("Extractor: Error parsing HTML: %v", err)
		return "", false
	}

	content, exists := doc.Find(fmt.Sprintf("meta[property='%s']", VideoURLProperty)).First().Attr("content")
	if !exists {
		return "", false
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}
	return content, true
}

// ExtractTitle extracts the page title from HTML content with fallback mechanisms
func ExtractTitle(htmlContent string) (string, error) {
	// Try readability first
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err == nil {
		title := strings.TrimSpace(article.Title)
		if title != "" {
			return title, nil
		}
	}

	// Fallback: Try parsing HTML directly with goquery
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Try meta property="og:title"
	if title, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}

	// Try <title> tag
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}

	return "", fmt.Errorf("title not found in HTML")
}
