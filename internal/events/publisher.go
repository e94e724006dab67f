package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/floorly/catalog-enricher/internal/database"
)

const EventTypeProductEnriched = "PRODUCT_ENRICHED"

// ProductEnrichedPayload is the event body emitted after a product group has
// been enriched and its writes committed.
type ProductEnrichedPayload struct {
	ProductID      string    `json:"product_id"`
	VendorID       string    `json:"vendor_id"`
	JobID          string    `json:"job_id,omitempty"`
	Collection     string    `json:"collection"`
	ProductName    string    `json:"product_name"`
	SkusEnriched   int       `json:"skus_enriched"`
	ImagesAdded    int       `json:"images_added"`
	DescriptionSet bool      `json:"description_set"`
	SpecSlugs      []string  `json:"spec_slugs,omitempty"`
	EnrichedAt     time.Time `json:"enriched_at"`
}

// Publisher writes enrichment events into the transactional outbox. The
// relay moves them to Redis; publishing here never touches the broker.
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
}

func NewPublisher(db *database.DB, outbox *database.OutboxRepository) *Publisher {
	return &Publisher{db: db, outbox: outbox}
}

// PublishProductEnriched stores a PRODUCT_ENRICHED event for the relay.
func (p *Publisher) PublishProductEnriched(ctx context.Context, payload *ProductEnrichedPayload) error {
	if payload.EnrichedAt.IsZero() {
		payload.EnrichedAt = time.Now()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return p.db.Transaction(ctx, func(tx pgx.Tx) error {
		event := &database.OutboxEvent{
			AggregateType: "product",
			AggregateID:   payload.ProductID,
			EventType:     EventTypeProductEnriched,
			Payload:       data,
			TargetStream:  database.EnrichmentStream,
		}
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
}
