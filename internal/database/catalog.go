package database

import (
	"context"
	"fmt"

	"github.com/floorly/catalog-enricher/internal/models"
)

// CatalogStore reads SKU rows and applies enrichment writes. Every write is
// individually committed and idempotent: the description update only lands on
// an empty column, and both upserts key on natural uniqueness constraints.
type CatalogStore struct {
	db *DB
}

func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ListSkusForVendor returns all SKUs of a vendor whose product collection
// starts with the given brand prefix. The prefix match is case-sensitive.
func (s *CatalogStore) ListSkusForVendor(ctx context.Context, vendorID, brandPrefix string) ([]models.SkuRecord, error) {
	query := `
		SELECT s.sku_id, s.vendor_sku, s.internal_sku, s.variant_name,
		       p.product_id, p.name, p.collection, COALESCE(p.description_long, '')
		FROM skus s
		JOIN products p ON p.product_id = s.product_id
		WHERE p.vendor_id = $1
		  AND p.collection LIKE $2 || '%'
		ORDER BY p.collection, p.name, s.sku_id`

	rows, err := s.db.pool.Query(ctx, query, vendorID, brandPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query skus: %w", err)
	}
	defer rows.Close()

	var skus []models.SkuRecord
	for rows.Next() {
		var r models.SkuRecord
		err := rows.Scan(
			&r.SkuID, &r.VendorSku, &r.InternalSku, &r.VariantName,
			&r.ProductID, &r.ProductName, &r.Collection, &r.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		skus = append(skus, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skus: %w", err)
	}

	return skus, nil
}

// UpdateProductDescription sets the long description only when it is
// currently empty, so a re-run or a concurrent run never overwrites a
// previously written or human-curated description.
func (s *CatalogStore) UpdateProductDescription(ctx context.Context, productID, description string) (bool, error) {
	query := `
		UPDATE products SET
			description_long = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = $1
		  AND (description_long IS NULL OR description_long = '')`

	tag, err := s.db.pool.Exec(ctx, query, productID, description)
	if err != nil {
		return false, fmt.Errorf("failed to update product description: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpsertMediaAsset writes one image row, keyed on (product_id, url) so
// repeated runs do not duplicate assets.
func (s *CatalogStore) UpsertMediaAsset(ctx context.Context, asset *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (product_id, sku_id, asset_type, url, original_url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, url) DO UPDATE SET
			asset_type = EXCLUDED.asset_type,
			sort_order = EXCLUDED.sort_order,
			updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.pool.Exec(ctx, query,
		asset.ProductID, asset.SkuID, asset.AssetType,
		asset.URL, asset.OriginalURL, asset.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert media asset: %w", err)
	}

	return nil
}

// UpsertSkuAttribute writes one attribute value, keyed on (sku_id, slug).
func (s *CatalogStore) UpsertSkuAttribute(ctx context.Context, skuID, slug, value string) error {
	query := `
		INSERT INTO sku_attributes (sku_id, attribute_slug, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku_id, attribute_slug) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.pool.Exec(ctx, query, skuID, slug, value)
	if err != nil {
		return fmt.Errorf("failed to upsert sku attribute: %w", err)
	}

	return nil
}
