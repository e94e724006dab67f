package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorly/catalog-enricher/internal/config"
	"github.com/floorly/catalog-enricher/internal/events"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/models"
)

type fakeCatalog struct {
	mu           sync.Mutex
	skus         []models.SkuRecord
	listErr      error
	descriptions map[string]string
	descDeclined bool
	assets       []*models.MediaAsset
	attributes   map[string]map[string]string
}

func newFakeCatalog(skus []models.SkuRecord) *fakeCatalog {
	return &fakeCatalog{
		skus:         skus,
		descriptions: make(map[string]string),
		attributes:   make(map[string]map[string]string),
	}
}

func (c *fakeCatalog) ListSkusForVendor(ctx context.Context, vendorID, brandPrefix string) ([]models.SkuRecord, error) {
	return c.skus, c.listErr
}

func (c *fakeCatalog) UpdateProductDescription(ctx context.Context, productID, description string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.descDeclined {
		return false, nil
	}
	c.descriptions[productID] = description
	return true, nil
}

func (c *fakeCatalog) UpsertMediaAsset(ctx context.Context, asset *models.MediaAsset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = append(c.assets, asset)
	return nil
}

func (c *fakeCatalog) UpsertSkuAttribute(ctx context.Context, skuID, slug, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes[skuID] == nil {
		c.attributes[skuID] = make(map[string]string)
	}
	c.attributes[skuID][slug] = value
	return nil
}

type logEntry struct {
	message string
	payload map[string]interface{}
}

type fakeJobLog struct {
	mu     sync.Mutex
	logs   []logEntry
	errors []string
}

func (l *fakeJobLog) AppendLog(ctx context.Context, jobID, message string, payload map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, logEntry{message: message, payload: payload})
	return nil
}

func (l *fakeJobLog) AddJobError(ctx context.Context, jobID, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
	return nil
}

// fakeAdapter navigates the pager to a per-product URL and serves canned
// extraction results keyed by that URL.
type fakeAdapter struct {
	source   models.VendorSource
	pages    map[string]*models.ExtractedProductData
	notFound map[string]bool
	failures map[string]error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		source: models.VendorSource{
			VendorID:    "artesa",
			Name:        "Artesa Tile",
			BrandPrefix: "Artesa",
		},
		pages:    make(map[string]*models.ExtractedProductData),
		notFound: make(map[string]bool),
		failures: make(map[string]error),
	}
}

func (a *fakeAdapter) pageURL(productName string) string {
	return "https://v.example/products/" + locate.Slugify(productName)
}

func (a *fakeAdapter) Source() models.VendorSource { return a.source }

func (a *fakeAdapter) Locate(ctx context.Context, pg locate.Pager, productName string) (bool, error) {
	if err := a.failures[productName]; err != nil {
		return false, err
	}
	if a.notFound[productName] {
		return false, nil
	}
	if err := pg.Navigate(ctx, a.pageURL(productName)); err != nil {
		return false, err
	}
	return true, nil
}

func (a *fakeAdapter) Extract(html string) (*models.ExtractedProductData, error) {
	data, ok := a.pages[html]
	if !ok {
		return &models.ExtractedProductData{}, nil
	}
	return data, nil
}

// memPager echoes its current URL as page content, so the fake adapter can
// key extraction results off it.
type memPager struct {
	currentURL string
}

func (p *memPager) Navigate(ctx context.Context, url string) error {
	p.currentURL = url
	return nil
}

func (p *memPager) Content() (string, error)            { return p.currentURL, nil }
func (p *memPager) URL() string                         { return p.currentURL }
func (p *memPager) Links(string) ([]locate.Link, error) { return nil, nil }

type fakeSession struct {
	pager  *memPager
	opened bool
	closed bool
}

func (s *fakeSession) open(ctx context.Context) (locate.Pager, func() error, error) {
	s.opened = true
	return s.pager, func() error {
		s.closed = true
		return nil
	}, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads []*events.ProductEnrichedPayload
}

func (p *fakePublisher) PublishProductEnriched(ctx context.Context, payload *events.ProductEnrichedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func testConfig() config.EnrichConfig {
	return config.EnrichConfig{
		RequestDelay:  time.Millisecond,
		MaxImages:     8,
		MaxJobErrors:  30,
		ProgressEvery: 10,
	}
}

func newTestOrchestrator(catalog *fakeCatalog, adapter *fakeAdapter, joblog *fakeJobLog, session *fakeSession, publisher *fakePublisher, cfg config.EnrichConfig) *Orchestrator {
	params := OrchestratorParams{
		Adapter:     adapter,
		Catalog:     catalog,
		Jobs:        joblog,
		OpenSession: session.open,
		Config:      cfg,
	}
	if publisher != nil {
		params.Publisher = publisher
	}
	return NewOrchestrator(params)
}

func TestRunNoSkus(t *testing.T) {
	catalog := newFakeCatalog(nil)
	joblog := &fakeJobLog{}
	session := &fakeSession{pager: &memPager{}}

	o := newTestOrchestrator(catalog, newFakeAdapter(), joblog, session, nil, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, &models.RunStats{}, stats)
	assert.False(t, session.opened, "browser must not launch without SKUs")
	require.Len(t, joblog.logs, 1)
	assert.Contains(t, joblog.logs[0].message, "No Artesa SKUs found")
}

func TestRunEnrichesGroups(t *testing.T) {
	skus := []models.SkuRecord{
		{SkuID: "s1", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
		{SkuID: "s2", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
		{SkuID: "s3", ProductID: "p2", Collection: "Artesa Terra", ProductName: "Terra Sole"},
	}
	catalog := newFakeCatalog(skus)
	joblog := &fakeJobLog{}
	session := &fakeSession{pager: &memPager{}}
	publisher := &fakePublisher{}

	adapter := newFakeAdapter()
	adapter.pages[adapter.pageURL("Terra Luna")] = &models.ExtractedProductData{
		Images:      []string{"https://cdn.example/luna-1.jpg", "https://cdn.example/luna-room.jpg"},
		Description: "Warm-toned porcelain tile.",
		Specs:       map[string]string{"material": "Porcelain", "size": "60x60"},
	}
	adapter.notFound["Terra Sole"] = true

	o := newTestOrchestrator(catalog, adapter, joblog, session, publisher, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ProductsTotal)
	assert.Equal(t, 1, stats.ProductsUpdated)
	assert.Equal(t, 2, stats.SkusEnriched)
	assert.Equal(t, 1, stats.SkusSkipped)
	assert.Equal(t, 2, stats.ImagesAdded)
	assert.Equal(t, 0, stats.ErrorCount)

	assert.Equal(t, "Warm-toned porcelain tile.", catalog.descriptions["p1"])

	require.Len(t, catalog.assets, 2)
	assert.Equal(t, models.AssetPrimary, catalog.assets[0].AssetType)
	assert.Equal(t, 0, catalog.assets[0].SortOrder)

	// Both variants of the group carry the attributes.
	assert.Equal(t, "Porcelain", catalog.attributes["s1"]["material"])
	assert.Equal(t, "60x60", catalog.attributes["s2"]["size"])
	assert.Empty(t, catalog.attributes["s3"])

	assert.True(t, session.opened)
	assert.True(t, session.closed)

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "p1", publisher.payloads[0].ProductID)
	assert.True(t, publisher.payloads[0].DescriptionSet)
	assert.Equal(t, []string{"material", "size"}, publisher.payloads[0].SpecSlugs)

	// Final summary carries the run counters.
	last := joblog.logs[len(joblog.logs)-1]
	assert.Contains(t, last.message, "2 products found, 1 updated")
	assert.Equal(t, 2, last.payload["products_found"])
	assert.Equal(t, 1, last.payload["products_updated"])
}

func TestRunCapsImages(t *testing.T) {
	skus := []models.SkuRecord{
		{SkuID: "s1", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
	}
	catalog := newFakeCatalog(skus)
	session := &fakeSession{pager: &memPager{}}

	adapter := newFakeAdapter()
	var urls []string
	for i := 0; i < 12; i++ {
		urls = append(urls, fmt.Sprintf("https://cdn.example/luna-%d.jpg", i))
	}
	adapter.pages[adapter.pageURL("Terra Luna")] = &models.ExtractedProductData{Images: urls}

	o := newTestOrchestrator(catalog, adapter, &fakeJobLog{}, session, nil, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, 8, stats.ImagesAdded)
	require.Len(t, catalog.assets, 8)
	assert.Equal(t, models.AssetPrimary, catalog.assets[0].AssetType)
	for i, asset := range catalog.assets {
		assert.Equal(t, i, asset.SortOrder)
	}
}

func TestRunPrefersProductShotAsPrimary(t *testing.T) {
	skus := []models.SkuRecord{
		{SkuID: "s1", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
	}
	catalog := newFakeCatalog(skus)
	session := &fakeSession{pager: &memPager{}}

	adapter := newFakeAdapter()
	adapter.pages[adapter.pageURL("Terra Luna")] = &models.ExtractedProductData{
		Images: []string{
			"https://cdn.example/luna-room-scene.jpg",
			"https://cdn.example/luna-closeup.jpg",
		},
	}

	o := newTestOrchestrator(catalog, adapter, &fakeJobLog{}, session, nil, testConfig())

	_, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	require.Len(t, catalog.assets, 2)
	assert.Equal(t, "https://cdn.example/luna-closeup.jpg", catalog.assets[0].URL)
	assert.Equal(t, models.AssetPrimary, catalog.assets[0].AssetType)
	assert.Equal(t, models.AssetLifestyle, catalog.assets[1].AssetType)
}

func TestRunContainsGroupFailures(t *testing.T) {
	skus := []models.SkuRecord{
		{SkuID: "s1", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
		{SkuID: "s2", ProductID: "p2", Collection: "Artesa Terra", ProductName: "Terra Sole"},
	}
	catalog := newFakeCatalog(skus)
	joblog := &fakeJobLog{}
	session := &fakeSession{pager: &memPager{}}

	adapter := newFakeAdapter()
	adapter.failures["Terra Luna"] = errors.New("navigation timeout")
	adapter.pages[adapter.pageURL("Terra Sole")] = &models.ExtractedProductData{
		Description: "Sun-baked clay finish.",
	}

	o := newTestOrchestrator(catalog, adapter, joblog, session, nil, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err, "a failing group must not abort the run")

	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.SkusSkipped)
	assert.Equal(t, 1, stats.SkusEnriched)
	assert.Equal(t, 1, stats.ProductsUpdated)

	require.Len(t, joblog.errors, 1)
	assert.Contains(t, joblog.errors[0], "Terra Luna")
	assert.Contains(t, joblog.errors[0], "navigation timeout")
}

func TestRunBoundsPersistedErrors(t *testing.T) {
	var skus []models.SkuRecord
	adapter := newFakeAdapter()
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("Product %d", i)
		skus = append(skus, models.SkuRecord{
			SkuID:       fmt.Sprintf("s%d", i),
			ProductID:   fmt.Sprintf("p%d", i),
			Collection:  "Artesa Terra",
			ProductName: name,
		})
		adapter.failures[name] = errors.New("boom")
	}

	catalog := newFakeCatalog(skus)
	joblog := &fakeJobLog{}
	session := &fakeSession{pager: &memPager{}}

	o := newTestOrchestrator(catalog, adapter, joblog, session, nil, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, 40, stats.ErrorCount, "every error is counted")
	assert.Len(t, joblog.errors, 30, "only the cap is persisted")
}

func TestRunSkipsEmptyExtraction(t *testing.T) {
	skus := []models.SkuRecord{
		{SkuID: "s1", ProductID: "p1", Collection: "Artesa Terra", ProductName: "Terra Luna"},
	}
	catalog := newFakeCatalog(skus)
	session := &fakeSession{pager: &memPager{}}

	// Adapter finds the page but extraction yields nothing.
	adapter := newFakeAdapter()

	o := newTestOrchestrator(catalog, adapter, &fakeJobLog{}, session, nil, testConfig())

	stats, err := o.Run(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ProductsUpdated)
	assert.Equal(t, 0, stats.SkusEnriched)
	assert.Equal(t, 1, stats.SkusSkipped)
	assert.Equal(t, 0, stats.ErrorCount)
}

func TestRunListFailureAborts(t *testing.T) {
	catalog := newFakeCatalog(nil)
	catalog.listErr = errors.New("connection refused")
	session := &fakeSession{pager: &memPager{}}

	o := newTestOrchestrator(catalog, newFakeAdapter(), &fakeJobLog{}, session, nil, testConfig())

	_, err := o.Run(context.Background(), "job-1")
	require.Error(t, err)
	assert.False(t, session.opened)
}

func TestBoundedErrorLog(t *testing.T) {
	joblog := &fakeJobLog{}
	errlog := newBoundedErrorLog("job-1", joblog, 3, nil)

	for i := 0; i < 5; i++ {
		errlog.Record(context.Background(), fmt.Sprintf("error %d", i))
	}

	assert.Equal(t, 5, errlog.Count())
	assert.Equal(t, 2, errlog.Dropped())
	assert.Len(t, joblog.errors, 3)
}
