package enrich

import (
	"github.com/floorly/catalog-enricher/internal/models"
)

// GroupSkus buckets SKU rows into product groups keyed by
// (collection, product name). Group order is first-seen order of the input
// rows, so the same rows always produce the same iteration sequence.
func GroupSkus(skus []models.SkuRecord) []*models.ProductGroup {
	index := make(map[string]*models.ProductGroup)
	var groups []*models.ProductGroup

	for _, sku := range skus {
		key := sku.Collection + "|" + sku.ProductName
		group, ok := index[key]
		if !ok {
			group = &models.ProductGroup{
				Collection:  sku.Collection,
				ProductName: sku.ProductName,
			}
			index[key] = group
			groups = append(groups, group)
		}
		group.Skus = append(group.Skus, sku)
	}

	return groups
}
