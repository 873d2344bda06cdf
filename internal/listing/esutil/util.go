package esutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/listing"
	platformElasticsearch "shareaplate_backend/internal/platform/elasticsearch"
)

// ListingToElasticsearchDoc converts a food listing to its search document.
func ListingToElasticsearchDoc(l *listing.FoodListing) (string, error) {
	if l == nil {
		return "", errors.New("listing cannot be nil")
	}

	tags := []string(l.DietaryTags)
	if tags == nil {
		tags = []string{}
	}
	doc := map[string]interface{}{
		"title":        l.Title,
		"slug":         l.Slug,
		"description":  l.Description,
		"food_type":    l.FoodType,
		"quantity":     l.Quantity,
		"location":     l.Location,
		"dietary_tags": tags,
		"donor_id":     l.DonorID.String(),
		"status":       string(l.Status),
		"expiry_date":  l.ExpiryDate,
		"created_at":   l.CreatedAt,
		"updated_at":   l.UpdatedAt,
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling listing %s to JSON: %w", l.ID, err)
	}
	return string(b), nil
}

// Indexer is the Elasticsearch-backed listing.Indexer.
type Indexer struct {
	client *platformElasticsearch.ESClientWrapper
	logger *zap.Logger
}

// NewIndexer returns a NoopIndexer when no Elasticsearch client is configured.
func NewIndexer(client *platformElasticsearch.ESClientWrapper, logger *zap.Logger) listing.Indexer {
	if client == nil || client.Client == nil {
		logger.Info("Elasticsearch not configured; listing search falls back to the database")
		return listing.NoopIndexer{}
	}
	return &Indexer{client: client, logger: logger.Named("listing_indexer")}
}

func (i *Indexer) IndexListing(ctx context.Context, l *listing.FoodListing) error {
	docJSON, err := ListingToElasticsearchDoc(l)
	if err != nil {
		return err
	}
	res, err := esapi.IndexRequest{
		Index:      platformElasticsearch.FoodListingsIndexName,
		DocumentID: l.ID.String(),
		Body:       strings.NewReader(docJSON),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("error indexing listing %s: %w", l.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error indexing listing %s: status %s", l.ID, res.Status())
	}
	i.logger.Debug("Listing indexed", zap.String("listingID", l.ID.String()))
	return nil
}

func (i *Indexer) DeleteListing(ctx context.Context, id uuid.UUID) error {
	res, err := esapi.DeleteRequest{
		Index:      platformElasticsearch.FoodListingsIndexName,
		DocumentID: id.String(),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("error deleting listing %s from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error deleting listing %s from index: status %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Indexer) SearchIDs(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	body := map[string]interface{}{
		"size":    limit,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^3", "description", "food_type^2", "dietary_tags"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("error encoding search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{platformElasticsearch.FoodListingsIndexName},
		Body:  &buf,
	}.Do(ctx, i.client.Client)
	if err != nil {
		return nil, fmt.Errorf("error searching listings: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("error searching listings: status %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			i.logger.Warn("Skipping search hit with malformed id", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SyncSource is the slice of the listing repository needed for a full reindex.
type SyncSource interface {
	FindAllForSync(ctx context.Context, offset, limit int) ([]listing.FoodListing, error)
}

// SyncResult summarises a bulk reindex run.
type SyncResult struct {
	Synced  int
	Failed  int
	Batches int
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string                 `json:"_id"`
		Status int                    `json:"status"`
		Error  map[string]interface{} `json:"error,omitempty"`
	} `json:"items"`
}

// SyncListings pages through every listing and pushes them to the index with
// the bulk API. A failed batch is counted and skipped; only read errors abort.
func SyncListings(
	ctx context.Context,
	source SyncSource,
	client *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	batchSize int,
	refresh string,
) (SyncResult, error) {
	var result SyncResult
	if client == nil || client.Client == nil {
		return result, errors.New("elasticsearch client is not configured")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	log := logger.Named("listing_sync")
	log.Info("Starting listing synchronization to Elasticsearch",
		zap.Int("batchSize", batchSize),
		zap.String("esRefreshPolicy", refresh),
	)

	offset := 0
	for {
		listings, err := source.FindAllForSync(ctx, offset, batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to fetch batch %d: %w", result.Batches+1, err)
		}
		if len(listings) == 0 {
			break
		}
		result.Batches++
		offset += len(listings)

		var body strings.Builder
		sent := 0
		for idx := range listings {
			l := &listings[idx]
			docJSON, err := ListingToElasticsearchDoc(l)
			if err != nil {
				log.Error("Failed to convert listing to Elasticsearch document", zap.String("listingID", l.ID.String()), zap.Error(err))
				result.Failed++
				continue
			}
			fmt.Fprintf(&body, `{"index":{"_index":"%s","_id":"%s"}}`+"\n", platformElasticsearch.FoodListingsIndexName, l.ID)
			body.WriteString(docJSON)
			body.WriteString("\n")
			sent++
		}
		if sent == 0 {
			continue
		}

		synced, failed := sendBulk(ctx, client, log, body.String(), refresh, sent, result.Batches)
		result.Synced += synced
		result.Failed += failed

		if len(listings) < batchSize {
			break
		}
	}

	log.Info("Listing synchronization finished",
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
		zap.Int("batches", result.Batches),
	)
	return result, nil
}

func sendBulk(ctx context.Context, client *platformElasticsearch.ESClientWrapper, log *zap.Logger, body, refresh string, sent, batch int) (int, int) {
	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(body),
		Refresh: refresh,
	}.Do(ctx, client.Client)
	if err != nil {
		log.Error("Failed to send bulk request to Elasticsearch", zap.Error(err), zap.Int("batchNumber", batch))
		return 0, sent
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Error("Elasticsearch bulk request returned an error", zap.String("status", res.Status()), zap.Int("batchNumber", batch))
		return 0, sent
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		log.Error("Failed to parse Elasticsearch bulk response body", zap.Error(err), zap.Int("batchNumber", batch))
		return 0, sent
	}
	if !parsed.Errors {
		return sent, 0
	}

	synced, failed := 0, 0
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error != nil {
				log.Error("Failed to index document in bulk batch", zap.String("listingID", op.ID), zap.Any("error", op.Error))
				failed++
			} else {
				synced++
			}
		}
	}
	return synced, failed
}
