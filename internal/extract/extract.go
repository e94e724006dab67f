package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/floorly/catalog-enricher/internal/images"
	"github.com/floorly/catalog-enricher/internal/models"
)

// Engine pulls structured product data out of a rendered page's HTML. It is
// a pure read of the DOM snapshot: no navigation, no storage access.
type Engine struct {
	rules   RuleSet
	baseURL string
}

func NewEngine(rules RuleSet, baseURL string) *Engine {
	if len(rules.AttributeKeys) == 0 {
		rules.AttributeKeys = DefaultAttributeKeys()
	}
	if len(rules.KeywordRules) == 0 {
		rules.KeywordRules = DefaultKeywordRules()
	}

	return &Engine{
		rules:   rules,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Extract parses the page HTML and returns images, description, and specs.
// Specs is nil when no attribute was recognized, so callers can distinguish
// "no specs" from an empty value.
func (e *Engine) Extract(html string) (*models.ExtractedProductData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	data := &models.ExtractedProductData{
		Images:      e.extractImages(doc),
		Description: e.extractDescription(doc),
	}

	specs := e.extractSpecs(doc)
	if len(specs) > 0 {
		data.Specs = specs
	}

	return data, nil
}

func (e *Engine) extractImages(doc *goquery.Document) []string {
	var urls []string

	for _, rule := range e.rules.ImageRules {
		attr := rule.Attr
		if attr == "" {
			attr = "src"
		}

		doc.Find(rule.Selector).Each(func(i int, s *goquery.Selection) {
			if src, exists := s.Attr(attr); exists {
				if resolved := e.resolveURL(strings.TrimSpace(src)); resolved != "" {
					urls = append(urls, resolved)
				}
			}
		})
	}

	return images.Dedupe(images.FilterNoise(urls))
}

func (e *Engine) extractDescription(doc *goquery.Document) string {
	for _, selector := range e.rules.DescriptionSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// extractSpecs runs the two-tier attribute strategy: a structured spec table
// first, full-text keyword dictionaries only when the table yields nothing.
func (e *Engine) extractSpecs(doc *goquery.Document) map[string]string {
	specs := e.extractSpecTable(doc)

	pageText := strings.ToLower(doc.Text())

	if len(specs) == 0 {
		specs = e.extractKeywordSpecs(pageText)
	}

	if _, ok := specs["size"]; !ok {
		if matches := sizePattern.FindStringSubmatch(pageText); len(matches) == 3 {
			specs["size"] = matches[1] + "x" + matches[2]
		}
	}

	if _, ok := specs["pei_rating"]; !ok {
		if matches := peiPattern.FindStringSubmatch(pageText); len(matches) == 2 {
			specs["pei_rating"] = matches[1]
		}
	}

	return specs
}

func (e *Engine) extractSpecTable(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)

	if e.rules.SpecRowSelector == "" {
		return specs
	}

	doc.Find(e.rules.SpecRowSelector).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("th, td, dt, dd")
		if cells.Length() < 2 {
			return
		}

		label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}

		for _, key := range e.rules.AttributeKeys {
			if _, taken := specs[key.Slug]; taken {
				continue
			}
			for _, token := range key.Tokens {
				if strings.Contains(label, token) {
					specs[key.Slug] = value
					return
				}
			}
		}
	})

	return specs
}

func (e *Engine) extractKeywordSpecs(pageText string) map[string]string {
	specs := make(map[string]string)

	for _, rule := range e.rules.KeywordRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(pageText, keyword) {
				specs[rule.Slug] = capitalize(keyword)
				break
			}
		}
	}

	return specs
}

func (e *Engine) resolveURL(src string) string {
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if strings.HasPrefix(src, "/") {
		return e.baseURL + src
	}
	return src
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
