package extract

import "regexp"

// ImageRule selects image URLs from one DOM query pattern.
type ImageRule struct {
	Selector string
	Attr     string
}

// AttributeKey maps spec-table labels onto a normalized attribute slug.
// Labels are lowercased and substring-matched against the tokens.
type AttributeKey struct {
	Slug   string
	Tokens []string
}

// KeywordRule is a full-text fallback dictionary for one attribute. The
// first keyword found in the page text wins; keywords are declared in
// priority order.
type KeywordRule struct {
	Slug     string
	Keywords []string
}

// RuleSet is the declarative extraction configuration for one vendor site.
// Adding a vendor or a keyword is a data change, not a code change.
type RuleSet struct {
	ImageRules           []ImageRule
	DescriptionSelectors []string
	SpecRowSelector      string
	AttributeKeys        []AttributeKey
	KeywordRules         []KeywordRule
}

// DefaultAttributeKeys is the recognized spec-table vocabulary shared by all
// vendors. Order matters: the first key whose token matches a label claims it.
func DefaultAttributeKeys() []AttributeKey {
	return []AttributeKey{
		{Slug: "wear_layer", Tokens: []string{"wear layer", "wear_layer"}},
		{Slug: "pei_rating", Tokens: []string{"pei"}},
		{Slug: "material", Tokens: []string{"material"}},
		{Slug: "finish", Tokens: []string{"finish", "surface"}},
		{Slug: "thickness", Tokens: []string{"thickness"}},
		{Slug: "size", Tokens: []string{"size", "dimension", "format"}},
		{Slug: "color", Tokens: []string{"color", "colour", "shade"}},
	}
}

// DefaultKeywordRules is the shared full-text fallback vocabulary, used only
// when a page exposes no structured spec table.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Slug: "material", Keywords: []string{
			"porcelain", "ceramic", "glass", "stone", "vinyl", "laminate", "hardwood", "carpet",
		}},
		{Slug: "finish", Keywords: []string{
			"polished", "matte", "honed", "glossy", "textured", "smooth", "embossed",
		}},
	}
}

var (
	// sizePattern matches "<number> x <number>" with an ASCII x or a times
	// sign, integer or decimal.
	sizePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)`)

	// peiPattern matches a PEI label followed by an optional separator and a
	// single rating digit.
	peiPattern = regexp.MustCompile(`(?i)pei[\s:\-]*(\d)`)
)
