package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() RuleSet {
	return RuleSet{
		ImageRules: []ImageRule{
			{Selector: ".gallery img", Attr: "src"},
		},
		DescriptionSelectors: []string{".description", ".summary"},
		SpecRowSelector:      "table.specs tr",
	}
}

func TestExtractSpecsFromTable(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	html := `
		<table class="specs">
			<tr><th>Material</th><td>Glazed Porcelain</td></tr>
			<tr><th>Finish</th><td>Matte</td></tr>
			<tr><th>PEI Rating</th><td>4</td></tr>
			<tr><th>Wear Layer</th><td>22 mil</td></tr>
		</table>`

	data, err := engine.Extract(html)
	require.NoError(t, err)
	require.NotNil(t, data.Specs)

	assert.Equal(t, "Glazed Porcelain", data.Specs["material"])
	assert.Equal(t, "Matte", data.Specs["finish"])
	assert.Equal(t, "4", data.Specs["pei_rating"])
	assert.Equal(t, "22 mil", data.Specs["wear_layer"])
}

func TestExtractSpecsTableWinsOverKeywords(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	// Body text mentions ceramic, but the structured table says porcelain.
	html := `
		<p>A ceramic look for any room.</p>
		<table class="specs">
			<tr><th>Material</th><td>Porcelain</td></tr>
		</table>`

	data, err := engine.Extract(html)
	require.NoError(t, err)

	assert.Equal(t, "Porcelain", data.Specs["material"])
}

func TestExtractSpecsKeywordFallback(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	html := `<div class="copy">A polished porcelain tile for modern interiors.</div>`

	data, err := engine.Extract(html)
	require.NoError(t, err)
	require.NotNil(t, data.Specs)

	assert.Equal(t, "Porcelain", data.Specs["material"])
	assert.Equal(t, "Polished", data.Specs["finish"])
}

func TestExtractSpecsSizeRegexFillsGap(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "plain x separator",
			html:     `<p>Available in 120 x 60 cm format.</p>`,
			expected: "120x60",
		},
		{
			name:     "multiplication sign",
			html:     `<p>Format: 30×30</p>`,
			expected: "30x30",
		},
		{
			name:     "decimal dimensions",
			html:     `<p>Plank size 7.5 x 48 inches</p>`,
			expected: "7.5x48",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := engine.Extract(tt.html)
			require.NoError(t, err)
			require.NotNil(t, data.Specs)
			assert.Equal(t, tt.expected, data.Specs["size"])
		})
	}
}

func TestExtractSpecsSizeRegexDoesNotOverrideTable(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	html := `
		<table class="specs">
			<tr><th>Size</th><td>60x60 cm</td></tr>
		</table>
		<p>Also shown in 30 x 30 layouts.</p>`

	data, err := engine.Extract(html)
	require.NoError(t, err)

	assert.Equal(t, "60x60 cm", data.Specs["size"])
}

func TestExtractSpecsPeiRegex(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	html := `<p>Durability class PEI: 3, suited for residential floors.</p>`

	data, err := engine.Extract(html)
	require.NoError(t, err)
	require.NotNil(t, data.Specs)

	assert.Equal(t, "3", data.Specs["pei_rating"])
}

func TestExtractSpecsNilWhenNothingFound(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	data, err := engine.Extract(`<div>Unrelated marketing copy.</div>`)
	require.NoError(t, err)

	assert.Nil(t, data.Specs)
	assert.True(t, data.IsEmpty())
}

func TestExtractDescriptionSelectorOrder(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "first selector wins",
			html:     `<div class="description">Primary copy</div><div class="summary">Fallback copy</div>`,
			expected: "Primary copy",
		},
		{
			name:     "falls through to second selector",
			html:     `<div class="description">  </div><div class="summary">Fallback copy</div>`,
			expected: "Fallback copy",
		},
		{
			name:     "empty when no selector matches",
			html:     `<div class="other">text</div>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := engine.Extract(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data.Description)
		})
	}
}

func TestExtractImages(t *testing.T) {
	engine := NewEngine(testRules(), "https://example.com")

	html := `
		<div class="gallery">
			<img src="/media/tile-front.jpg">
			<img src="//cdn.example.com/tile-room.jpg">
			<img src="/media/tile-front.jpg">
			<img src="/assets/site-logo.png">
			<img src="/favicon-icon.png">
		</div>`

	data, err := engine.Extract(html)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/media/tile-front.jpg",
		"https://cdn.example.com/tile-room.jpg",
	}, data.Images)
}

func TestExtractImagesCustomAttr(t *testing.T) {
	rules := testRules()
	rules.ImageRules = []ImageRule{{Selector: ".lazy img", Attr: "data-src"}}
	engine := NewEngine(rules, "https://example.com")

	html := `<div class="lazy"><img data-src="/media/a.jpg" src="/placeholder.gif"></div>`

	data, err := engine.Extract(html)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/media/a.jpg"}, data.Images)
}

func TestExtractSpecsDefinitionList(t *testing.T) {
	rules := testRules()
	rules.SpecRowSelector = "dl.specs div"
	engine := NewEngine(rules, "https://example.com")

	html := `
		<dl class="specs">
			<div><dt>Thickness</dt><dd>8 mm</dd></div>
			<div><dt>Color</dt><dd>Oak</dd></div>
		</dl>`

	data, err := engine.Extract(html)
	require.NoError(t, err)

	assert.Equal(t, "8 mm", data.Specs["thickness"])
	assert.Equal(t, "Oak", data.Specs["color"])
}
