package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/floorly/catalog-enricher/internal/config"
	"github.com/floorly/catalog-enricher/internal/events"
	"github.com/floorly/catalog-enricher/internal/images"
	"github.com/floorly/catalog-enricher/internal/locate"
	"github.com/floorly/catalog-enricher/internal/models"
)

// CatalogStore is the storage surface the orchestrator writes through.
type CatalogStore interface {
	ListSkusForVendor(ctx context.Context, vendorID, brandPrefix string) ([]models.SkuRecord, error)
	UpdateProductDescription(ctx context.Context, productID, description string) (bool, error)
	UpsertMediaAsset(ctx context.Context, asset *models.MediaAsset) error
	UpsertSkuAttribute(ctx context.Context, skuID, slug, value string) error
}

// JobLog records run progress and errors against a job.
type JobLog interface {
	AppendLog(ctx context.Context, jobID, message string, payload map[string]interface{}) error
	AddJobError(ctx context.Context, jobID, message string) error
}

// VendorAdapter is one vendor's locate and extract behavior.
type VendorAdapter interface {
	Source() models.VendorSource
	Locate(ctx context.Context, pg locate.Pager, productName string) (bool, error)
	Extract(html string) (*models.ExtractedProductData, error)
}

// EventPublisher emits enrichment events to the outbox.
type EventPublisher interface {
	PublishProductEnriched(ctx context.Context, payload *events.ProductEnrichedPayload) error
}

// SessionFunc opens a browser session and returns a pager bound to it plus
// the close function for the session. The orchestrator only calls it after
// it knows there are SKUs to enrich.
type SessionFunc func(ctx context.Context) (locate.Pager, func() error, error)

// Orchestrator runs one enrichment pass for one vendor: load SKUs, group
// them by product, locate each product's page, extract data, and merge it
// into the catalog. Per-product failures are contained; only setup failures
// abort the run.
type Orchestrator struct {
	adapter     VendorAdapter
	catalog     CatalogStore
	jobs        JobLog
	openSession SessionFunc
	publisher   EventPublisher
	metrics     *Metrics
	logger      *slog.Logger
	cfg         config.EnrichConfig
}

type OrchestratorParams struct {
	Adapter     VendorAdapter
	Catalog     CatalogStore
	Jobs        JobLog
	OpenSession SessionFunc
	Publisher   EventPublisher
	Metrics     *Metrics
	Logger      *slog.Logger
	Config      config.EnrichConfig
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		adapter:     p.Adapter,
		catalog:     p.Catalog,
		jobs:        p.Jobs,
		openSession: p.OpenSession,
		publisher:   p.Publisher,
		metrics:     p.Metrics,
		logger:      logger.With("component", "orchestrator"),
		cfg:         p.Config,
	}
}

// Run executes the full enrichment pass and returns its counters. The
// returned stats are valid even when err is non-nil; they describe the work
// done up to the failure.
func (o *Orchestrator) Run(ctx context.Context, jobID string) (*models.RunStats, error) {
	stats := &models.RunStats{}
	source := o.adapter.Source()
	start := time.Now()

	skus, err := o.catalog.ListSkusForVendor(ctx, source.VendorID, source.BrandPrefix)
	if err != nil {
		return stats, fmt.Errorf("failed to load skus: %w", err)
	}

	if len(skus) == 0 {
		msg := fmt.Sprintf("No %s SKUs found for vendor %s; nothing to enrich",
			source.BrandPrefix, source.VendorID)
		o.logger.Info(msg)
		o.appendLog(ctx, jobID, msg, nil)
		return stats, nil
	}

	groups := GroupSkus(skus)
	stats.ProductsTotal = len(groups)

	o.logger.Info("Starting enrichment run",
		"vendor", source.VendorID,
		"skus", len(skus),
		"products", len(groups),
	)

	pager, closeSession, err := o.openSession(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := closeSession(); err != nil {
			o.logger.Warn("Failed to close browser session", "error", err)
		}
	}()

	errlog := newBoundedErrorLog(jobID, o.jobs, o.maxJobErrors(), o.logger)

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			stats.ErrorCount = errlog.Count()
			return stats, err
		}

		o.metrics.ProductProcessed(source.VendorID)

		if err := o.enrichGroup(ctx, jobID, pager, group, stats); err != nil {
			errlog.Record(ctx, fmt.Sprintf("%s / %s: %v", group.Collection, group.ProductName, err))
			o.metrics.Error(source.VendorID)
			o.skipGroup(group, stats)
		}

		if (i+1)%o.progressEvery() == 0 {
			msg := fmt.Sprintf("Processed %d/%d products", i+1, len(groups))
			o.logger.Info(msg,
				"vendor", source.VendorID,
				"updated", stats.ProductsUpdated,
				"errors", errlog.Count(),
			)
			o.appendLog(ctx, jobID, msg, map[string]interface{}{
				"processed": i + 1,
				"total":     len(groups),
			})
		}
	}

	stats.ErrorCount = errlog.Count()
	o.metrics.ObserveRunDuration(source.VendorID, time.Since(start).Seconds())

	summary := fmt.Sprintf("Enrichment run finished: %d products found, %d updated",
		stats.ProductsTotal, stats.ProductsUpdated)
	o.logger.Info(summary,
		"vendor", source.VendorID,
		"skus_enriched", stats.SkusEnriched,
		"skus_skipped", stats.SkusSkipped,
		"images_added", stats.ImagesAdded,
		"errors", stats.ErrorCount,
		"errors_dropped", errlog.Dropped(),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	o.appendLog(ctx, jobID, summary, map[string]interface{}{
		"products_found":   stats.ProductsTotal,
		"products_updated": stats.ProductsUpdated,
	})

	return stats, nil
}

// enrichGroup handles one product group. A nil return means the group was
// either merged or cleanly skipped; an error marks the group as failed and
// is contained by the caller.
func (o *Orchestrator) enrichGroup(ctx context.Context, jobID string, pager locate.Pager, group *models.ProductGroup, stats *models.RunStats) error {
	found, err := o.adapter.Locate(ctx, pager, group.ProductName)
	if err != nil {
		return fmt.Errorf("locate failed: %w", err)
	}

	if !found {
		o.logger.Debug("Product page not found",
			"collection", group.Collection, "product", group.ProductName)
		o.skipGroup(group, stats)
		return nil
	}

	html, err := pager.Content()
	if err != nil {
		return fmt.Errorf("failed to read page content: %w", err)
	}

	data, err := o.adapter.Extract(html)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if data.IsEmpty() {
		o.logger.Debug("Extraction yielded no data",
			"product", group.ProductName, "url", pager.URL())
		o.skipGroup(group, stats)
		return nil
	}

	return o.merge(ctx, jobID, group, data, stats)
}

// merge writes the extracted data into the catalog. Writes are idempotent at
// the storage layer; a failed write fails the whole group so a re-run can
// finish the job.
func (o *Orchestrator) merge(ctx context.Context, jobID string, group *models.ProductGroup, data *models.ExtractedProductData, stats *models.RunStats) error {
	source := o.adapter.Source()
	productID := group.ProductID()

	updated := false
	descriptionSet := false

	if data.Description != "" {
		wrote, err := o.catalog.UpdateProductDescription(ctx, productID, data.Description)
		if err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
		if wrote {
			updated = true
			descriptionSet = true
		}
	}

	ordered := images.PreferProductShot(data.Images, group.ProductName)
	if max := o.maxImages(); len(ordered) > max {
		ordered = ordered[:max]
	}

	for i, url := range ordered {
		asset := &models.MediaAsset{
			ProductID:   productID,
			SkuID:       group.Skus[0].SkuID,
			AssetType:   images.ClassifyAsset(url, i),
			URL:         url,
			OriginalURL: url,
			SortOrder:   i,
		}
		if err := o.catalog.UpsertMediaAsset(ctx, asset); err != nil {
			return fmt.Errorf("failed to upsert media asset: %w", err)
		}
	}
	if len(ordered) > 0 {
		updated = true
		stats.ImagesAdded += len(ordered)
		o.metrics.ImagesAdded(source.VendorID, len(ordered))
	}

	// Attributes apply to every SKU in the group; a vendor page describes
	// the product, not a single variant.
	var slugs []string
	if len(data.Specs) > 0 {
		slugs = make([]string, 0, len(data.Specs))
		for slug := range data.Specs {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)

		for _, sku := range group.Skus {
			for _, slug := range slugs {
				if err := o.catalog.UpsertSkuAttribute(ctx, sku.SkuID, slug, data.Specs[slug]); err != nil {
					return fmt.Errorf("failed to upsert attribute %q: %w", slug, err)
				}
			}
		}
		updated = true
	}

	stats.SkusEnriched += len(group.Skus)
	o.metrics.SkusEnriched(source.VendorID, len(group.Skus))

	if updated {
		stats.ProductsUpdated++
		o.metrics.ProductUpdated(source.VendorID)
		o.publishEnriched(ctx, jobID, group, len(ordered), descriptionSet, slugs)
	}

	return nil
}

// publishEnriched emits the outbox event for one merged product. Publish
// failures are logged and swallowed; the catalog writes already landed and
// the run should not fail over an eventing hiccup.
func (o *Orchestrator) publishEnriched(ctx context.Context, jobID string, group *models.ProductGroup, imagesAdded int, descriptionSet bool, slugs []string) {
	if o.publisher == nil {
		return
	}

	source := o.adapter.Source()
	payload := &events.ProductEnrichedPayload{
		ProductID:      group.ProductID(),
		VendorID:       source.VendorID,
		JobID:          jobID,
		Collection:     group.Collection,
		ProductName:    group.ProductName,
		SkusEnriched:   len(group.Skus),
		ImagesAdded:    imagesAdded,
		DescriptionSet: descriptionSet,
		SpecSlugs:      slugs,
		EnrichedAt:     time.Now(),
	}

	if err := o.publisher.PublishProductEnriched(ctx, payload); err != nil {
		o.logger.Warn("Failed to publish enrichment event",
			"product_id", payload.ProductID, "error", err)
	}
}

func (o *Orchestrator) skipGroup(group *models.ProductGroup, stats *models.RunStats) {
	stats.SkusSkipped += len(group.Skus)
	o.metrics.SkusSkipped(o.adapter.Source().VendorID, len(group.Skus))
}

func (o *Orchestrator) appendLog(ctx context.Context, jobID, message string, payload map[string]interface{}) {
	if o.jobs == nil {
		return
	}
	if err := o.jobs.AppendLog(ctx, jobID, message, payload); err != nil {
		o.logger.Warn("Failed to append job log", "job_id", jobID, "error", err)
	}
}

func (o *Orchestrator) progressEvery() int {
	if o.cfg.ProgressEvery > 0 {
		return o.cfg.ProgressEvery
	}
	return 10
}

func (o *Orchestrator) maxImages() int {
	if o.cfg.MaxImages > 0 {
		return o.cfg.MaxImages
	}
	return 8
}

func (o *Orchestrator) maxJobErrors() int {
	if o.cfg.MaxJobErrors > 0 {
		return o.cfg.MaxJobErrors
	}
	return 30
}
