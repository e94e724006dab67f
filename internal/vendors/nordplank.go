package vendors

import (
	"time"

	"github.com/floorly/catalog-enricher/internal/extract"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/models"
)

const nordplankBaseURL = "https://www.nordplankfloors.com"

// newNordPlank builds the adapter for the NordPlank flooring site. The site
// has no usable lookup endpoint; slugs are predictable, so the direct guess
// goes first with the search page as fallback.
func newNordPlank(opts Options) *Adapter {
	source := models.VendorSource{
		VendorID:    "nordplank",
		Name:        "NordPlank Floors",
		BrandPrefix: "NordPlank",
		Delay:       opts.RequestDelay,
	}
	if source.Delay <= 0 {
		source.Delay = 2000 * time.Millisecond
	}

	strategies := []locate.Strategy{
		&locate.SlugStrategy{
			URLTemplate: nordplankBaseURL + "/flooring/%s",
		},
		&locate.SearchPageStrategy{
			SearchURLTemplate: nordplankBaseURL + "/search?query=%s",
			LinkSelector:      ".search-results a.result-link",
			BaseURL:           nordplankBaseURL,
		},
	}

	notFound := locate.NotFoundKeywords(
		"not found",
		"nothing matched",
		"no results",
	)

	rules := extract.RuleSet{
		ImageRules: []extract.ImageRule{
			{Selector: ".gallery-slide img", Attr: "data-src"},
			{Selector: ".gallery-slide img", Attr: "src"},
			{Selector: "img[src*='/media/floors/']", Attr: "src"},
		},
		DescriptionSelectors: []string{
			".floor-overview__text",
			".product-summary",
			"article p",
		},
		SpecRowSelector: ".technical-data tr, dl.spec-list div",
	}

	locator := locate.NewLocator(strategies, notFound, opts.logger())
	engine := extract.NewEngine(rules, nordplankBaseURL)

	return newAdapter(source, locator, engine)
}
