package locate

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/floorly/catalog-enricher/internal/browser"
	"github.com/floorly/catalog-enricher/internal/ratelimit"
)

// BrowserPager adapts a playwright page to the Pager interface, throttling
// every navigation through the run's rate limiter.
type BrowserPager struct {
	browser *browser.Browser
	page    playwright.Page
	limiter ratelimit.Limiter
	timeout time.Duration
}

func NewBrowserPager(b *browser.Browser, page playwright.Page, limiter ratelimit.Limiter, timeout time.Duration) *BrowserPager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BrowserPager{
		browser: b,
		page:    page,
		limiter: limiter,
		timeout: timeout,
	}
}

func (p *BrowserPager) Navigate(ctx context.Context, url string) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return p.browser.Navigate(p.page, url, p.timeout)
}

func (p *BrowserPager) Content() (string, error) {
	return p.page.Content()
}

func (p *BrowserPager) URL() string {
	return p.page.URL()
}

func (p *BrowserPager) Links(selector string) ([]Link, error) {
	elements, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(elements))
	for _, el := range elements {
		text, _ := el.TextContent()
		href, _ := el.GetAttribute("href")
		links = append(links, Link{Text: text, Href: href})
	}

	return links, nil
}
