package enrich

import (
	"context"
	"time"

	"github.com/floorly/catalog-enricher/internal/browser"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/ratelimit"
)

// BrowserSession returns a SessionFunc that launches a headless browser and
// binds a single page to it. Every navigation on the returned pager waits on
// a fixed-delay limiter so the vendor site sees a steady request cadence.
func BrowserSession(opts *browser.Options, delay, pageTimeout time.Duration) SessionFunc {
	return func(ctx context.Context) (locate.Pager, func() error, error) {
		b, err := browser.New(opts)
		if err != nil {
			return nil, nil, err
		}

		page, err := b.NewPage()
		if err != nil {
			b.Close()
			return nil, nil, err
		}

		limiter := ratelimit.NewFixedDelayLimiter(delay)
		pager := locate.NewBrowserPager(b, page, limiter, pageTimeout)

		return pager, b.Close, nil
	}
}
