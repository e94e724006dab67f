package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Candidate is one result returned by a vendor lookup endpoint.
type Candidate struct {
	Name string
	URL  string
}

// LookupAPIStrategy queries a vendor search/autocomplete endpoint and
// navigates to the first candidate whose name contains the search term.
type LookupAPIStrategy struct {
	// EndpointTemplate receives the query-escaped product name.
	EndpointTemplate string
	BaseURL          string
	Client           *http.Client
	// Parse decodes the vendor's response body into candidates. When nil,
	// ParseCandidateList is used.
	Parse func(body []byte) ([]Candidate, error)
}

func (s *LookupAPIStrategy) Name() string { return "lookup-api" }

func (s *LookupAPIStrategy) Locate(ctx context.Context, pg Pager, productName string) (bool, error) {
	endpoint := fmt.Sprintf(s.EndpointTemplate, url.QueryEscape(productName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build lookup request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read lookup response: %w", err)
	}

	parse := s.Parse
	if parse == nil {
		parse = ParseCandidateList
	}

	candidates, err := parse(body)
	if err != nil {
		return false, fmt.Errorf("failed to parse lookup response: %w", err)
	}

	match := PickCandidate(candidates, productName)
	if match == nil {
		return false, nil
	}

	target := ResolveHref(s.BaseURL, match.URL)
	if err := pg.Navigate(ctx, target); err != nil {
		return false, err
	}

	return true, nil
}

// ParseCandidateList decodes the common `{"results": [{"name": ..., "url": ...}]}`
// lookup response shape.
func ParseCandidateList(body []byte) ([]Candidate, error) {
	var payload struct {
		Results []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"results"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		candidates = append(candidates, Candidate{Name: r.Name, URL: r.URL})
	}

	return candidates, nil
}

// PickCandidate returns the first candidate whose name contains the search
// term case-insensitively, in response order.
func PickCandidate(candidates []Candidate, term string) *Candidate {
	needle := strings.ToLower(term)
	for i := range candidates {
		if strings.Contains(strings.ToLower(candidates[i].Name), needle) && candidates[i].URL != "" {
			return &candidates[i]
		}
	}
	return nil
}

// SlugStrategy guesses the product page URL from the product name and
// navigates directly. Confirmation that the guess landed on a real product
// page is the locator's not-found predicate.
type SlugStrategy struct {
	// URLTemplate receives the slugified product name.
	URLTemplate string
}

func (s *SlugStrategy) Name() string { return "slug" }

func (s *SlugStrategy) Locate(ctx context.Context, pg Pager, productName string) (bool, error) {
	slug := Slugify(productName)
	if slug == "" {
		return false, nil
	}

	if err := pg.Navigate(ctx, fmt.Sprintf(s.URLTemplate, slug)); err != nil {
		return false, err
	}

	return true, nil
}

// SearchPageStrategy loads the vendor's full-text search page and follows
// the first result link whose visible text contains the product name.
type SearchPageStrategy struct {
	// SearchURLTemplate receives the query-escaped product name.
	SearchURLTemplate string
	LinkSelector      string
	BaseURL           string
}

func (s *SearchPageStrategy) Name() string { return "search-page" }

func (s *SearchPageStrategy) Locate(ctx context.Context, pg Pager, productName string) (bool, error) {
	searchURL := fmt.Sprintf(s.SearchURLTemplate, url.QueryEscape(productName))
	if err := pg.Navigate(ctx, searchURL); err != nil {
		return false, err
	}

	links, err := pg.Links(s.LinkSelector)
	if err != nil {
		return false, fmt.Errorf("failed to scan result links: %w", err)
	}

	needle := strings.ToLower(productName)
	for _, link := range links {
		if link.Href == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(link.Text), needle) {
			continue
		}

		if err := pg.Navigate(ctx, ResolveHref(s.BaseURL, link.Href)); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// ResolveHref turns a relative href into an absolute URL against a base.
func ResolveHref(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base = strings.TrimSuffix(base, "/")
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/" + href
}
