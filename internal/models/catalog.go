package models

import (
	"fmt"
	"time"
)

// SkuRecord is one catalog SKU row as loaded from storage. It is read-only
// input to the enrichment pipeline; all mutations go through the catalog store.
type SkuRecord struct {
	SkuID       string `json:"sku_id"`
	VendorSku   string `json:"vendor_sku"`
	InternalSku string `json:"internal_sku"`
	VariantName string `json:"variant_name"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Collection  string `json:"collection"`
	Description string `json:"description_long"`
}

// ProductGroup is the set of SKU variants that map to a single vendor
// product page. Grouping key is (collection, product name).
type ProductGroup struct {
	Collection  string
	ProductName string
	Skus        []SkuRecord
}

// GroupKey returns the stable key used to bucket SKUs into groups.
func (g *ProductGroup) GroupKey() string {
	return fmt.Sprintf("%s|%s", g.Collection, g.ProductName)
}

// ProductID returns the product id shared by the group's SKUs.
func (g *ProductGroup) ProductID() string {
	if len(g.Skus) == 0 {
		return ""
	}
	return g.Skus[0].ProductID
}

// ExtractedProductData is what the extraction engine pulls off a vendor page.
// It lives for exactly one product iteration before being merged into storage.
type ExtractedProductData struct {
	Images      []string          `json:"images"`
	Description string            `json:"description,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
}

// IsEmpty reports whether the extraction yielded nothing worth merging.
func (d *ExtractedProductData) IsEmpty() bool {
	return d == nil || (len(d.Images) == 0 && d.Description == "" && len(d.Specs) == 0)
}

// MediaAssetType classifies an image attached to a product.
type MediaAssetType string

const (
	AssetPrimary   MediaAssetType = "primary"
	AssetLifestyle MediaAssetType = "lifestyle"
	AssetAlternate MediaAssetType = "alternate"
)

// MediaAsset is one image row written to the catalog.
type MediaAsset struct {
	ProductID   string         `json:"product_id"`
	SkuID       string         `json:"sku_id"`
	AssetType   MediaAssetType `json:"asset_type"`
	URL         string         `json:"url"`
	OriginalURL string         `json:"original_url"`
	SortOrder   int            `json:"sort_order"`
}

// VendorSource describes one external vendor site bound to a run.
type VendorSource struct {
	VendorID    string        `json:"vendor_id"`
	Name        string        `json:"name"`
	BrandPrefix string        `json:"brand_prefix"`
	Delay       time.Duration `json:"delay_ms"`
}

// RunStats accumulates counters for one enrichment run. It is created at job
// start, threaded through the orchestrator, and reported at job end.
type RunStats struct {
	ProductsTotal   int `json:"products_total"`
	ProductsUpdated int `json:"products_updated"`
	SkusEnriched    int `json:"skus_enriched"`
	SkusSkipped     int `json:"skus_skipped"`
	ImagesAdded     int `json:"images_added"`
	ErrorCount      int `json:"error_count"`
}

// Job is one enrichment job invocation.
type Job struct {
	ID          string     `json:"id"`
	VendorID    string     `json:"vendor_id"`
	Status      string     `json:"status"`
	Stats       *RunStats  `json:"stats,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}
