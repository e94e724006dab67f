package vendors

import (
	"time"

	"github.com/floorly/catalog-enricher/internal/extract"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/models"
)

const artesaBaseURL = "https://www.artesatile.com"

// newArtesa builds the adapter for the Artesa tile site. Artesa runs a
// storefront with a JSON autocomplete endpoint, so the lookup API is tried
// before the slug guess.
func newArtesa(opts Options) *Adapter {
	source := models.VendorSource{
		VendorID:    "artesa",
		Name:        "Artesa Tile",
		BrandPrefix: "Artesa",
		Delay:       opts.RequestDelay,
	}
	if source.Delay <= 0 {
		source.Delay = 2000 * time.Millisecond
	}

	strategies := []locate.Strategy{
		&locate.LookupAPIStrategy{
			EndpointTemplate: artesaBaseURL + "/api/search/suggest?q=%s",
			BaseURL:          artesaBaseURL,
			Client:           opts.httpClient(),
		},
		&locate.SlugStrategy{
			URLTemplate: artesaBaseURL + "/products/%s",
		},
	}

	notFound := locate.NotFoundKeywords(
		"page not found",
		"no product",
		"404",
	)

	rules := extract.RuleSet{
		ImageRules: []extract.ImageRule{
			{Selector: ".product-gallery img", Attr: "src"},
			{Selector: "a.product-image-zoom", Attr: "href"},
			{Selector: "img[src*='/uploads/products/']", Attr: "src"},
		},
		DescriptionSelectors: []string{
			".product-description",
			".product-details__copy",
			"#description",
		},
		SpecRowSelector: "table.product-specs tr, .specs-table tr",
	}

	locator := locate.NewLocator(strategies, notFound, opts.logger())
	engine := extract.NewEngine(rules, artesaBaseURL)

	return newAdapter(source, locator, engine)
}
