package locate

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrNoStrategies = errors.New("locator has no strategies")

// Link is one anchor found on a page.
type Link struct {
	Text string
	Href string
}

// Pager is the navigation surface a locate strategy drives. One page context
// is shared sequentially across a whole run.
type Pager interface {
	Navigate(ctx context.Context, url string) error
	Content() (string, error)
	URL() string
	Links(selector string) ([]Link, error)
}

// Strategy is one technique for reaching a product page. Returning false
// with a nil error means the strategy came up empty; an error also just
// moves the chain along to the next strategy.
type Strategy interface {
	Name() string
	Locate(ctx context.Context, pg Pager, productName string) (bool, error)
}

// NotFoundPredicate inspects a loaded page and reports whether it is the
// vendor's "no such product" page.
type NotFoundPredicate func(html string) bool

// NotFoundKeywords builds a predicate matching any keyword in the lowercased
// page text.
func NotFoundKeywords(keywords ...string) NotFoundPredicate {
	return func(html string) bool {
		lower := strings.ToLower(html)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
}

// Locator tries an ordered list of strategies until one lands on a page the
// not-found predicate accepts. First match wins; there is no scoring. A
// wrong-product false positive is worse than a skip.
type Locator struct {
	strategies []Strategy
	notFound   NotFoundPredicate
	cache      *lru.Cache[string, string]
	logger     *slog.Logger
}

func NewLocator(strategies []Strategy, notFound NotFoundPredicate, logger *slog.Logger) *Locator {
	// Cache size covers duplicate product names across collections in a run.
	cache, _ := lru.New[string, string](256)

	return &Locator{
		strategies: strategies,
		notFound:   notFound,
		cache:      cache,
		logger:     logger.With("component", "locator"),
	}
}

// Locate drives the strategy chain for one product name. It returns true
// when the pager is left on a confirmed product page, false when every
// strategy failed or the page is a confirmed not-found.
func (l *Locator) Locate(ctx context.Context, pg Pager, productName string) (bool, error) {
	if len(l.strategies) == 0 {
		return false, ErrNoStrategies
	}

	if url, ok := l.cache.Get(productName); ok {
		if err := pg.Navigate(ctx, url); err == nil && l.confirm(pg) {
			return true, nil
		}
		l.cache.Remove(productName)
	}

	for _, strategy := range l.strategies {
		found, err := strategy.Locate(ctx, pg, productName)
		if err != nil {
			l.logger.Debug("strategy failed",
				"strategy", strategy.Name(),
				"product", productName,
				"error", err)
			continue
		}
		if !found {
			continue
		}

		if !l.confirm(pg) {
			l.logger.Debug("strategy hit not-found page",
				"strategy", strategy.Name(),
				"product", productName)
			continue
		}

		l.cache.Add(productName, pg.URL())
		return true, nil
	}

	return false, nil
}

func (l *Locator) confirm(pg Pager) bool {
	if l.notFound == nil {
		return true
	}

	html, err := pg.Content()
	if err != nil {
		return false
	}

	return !l.notFound(html)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL path segment from a product name: lowercase, runs of
// non-alphanumeric characters collapsed to a single dash, no leading or
// trailing dashes.
func Slugify(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
