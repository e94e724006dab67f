package vendors

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/floorly/catalog-enricher/internal/extract"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/models"
)

// Options carries the run-level knobs an adapter needs.
type Options struct {
	LookupTimeout time.Duration
	PageTimeout   time.Duration
	RequestDelay  time.Duration
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) httpClient() *http.Client {
	timeout := o.LookupTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Adapter binds one vendor site's locator chain and extraction rules. Each
// vendor is a configuration value: URL templates, selectors, and keyword
// dictionaries feeding the shared locate and extract machinery.
type Adapter struct {
	source  models.VendorSource
	locator *locate.Locator
	engine  *extract.Engine
}

func newAdapter(source models.VendorSource, locator *locate.Locator, engine *extract.Engine) *Adapter {
	return &Adapter{
		source:  source,
		locator: locator,
		engine:  engine,
	}
}

func (a *Adapter) Source() models.VendorSource {
	return a.source
}

// Locate drives the vendor's strategy chain, leaving pg on the product page
// when it returns true.
func (a *Adapter) Locate(ctx context.Context, pg locate.Pager, productName string) (bool, error) {
	return a.locator.Locate(ctx, pg, productName)
}

// Extract pulls product data out of the located page's HTML.
func (a *Adapter) Extract(html string) (*models.ExtractedProductData, error) {
	return a.engine.Extract(html)
}

type factory func(opts Options) *Adapter

var registry = map[string]factory{
	"artesa":    newArtesa,
	"nordplank": newNordPlank,
}

// New returns the adapter registered for a vendor id.
func New(vendorID string, opts Options) (*Adapter, error) {
	build, ok := registry[vendorID]
	if !ok {
		return nil, fmt.Errorf("unknown vendor: %s", vendorID)
	}
	return build(opts), nil
}

// VendorIDs lists the registered vendor ids in stable order.
func VendorIDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
