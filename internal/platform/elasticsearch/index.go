package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const FoodListingsIndexName = "food_listings"

func foodListingsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":        map[string]interface{}{"type": "text"},
				"slug":         map[string]interface{}{"type": "keyword"},
				"description":  map[string]interface{}{"type": "text"},
				"food_type":    map[string]interface{}{"type": "keyword"},
				"quantity":     map[string]interface{}{"type": "text"},
				"location":     map[string]interface{}{"type": "keyword"},
				"dietary_tags": map[string]interface{}{"type": "keyword"},
				"donor_id":     map[string]interface{}{"type": "keyword"},
				"status":       map[string]interface{}{"type": "keyword"},
				"expiry_date":  map[string]interface{}{"type": "date"},
				"created_at":   map[string]interface{}{"type": "date"},
				"updated_at":   map[string]interface{}{"type": "date"},
			},
		},
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling food listings mapping to JSON: %w", err)
	}
	return string(b), nil
}

// CreateFoodListingsIndexIfNotExists creates the food listings index with its
// mapping if it does not already exist.
func CreateFoodListingsIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	log := logger.Named("elasticsearch_index_setup")

	res, err := esapi.IndicesExistsRequest{Index: []string{FoodListingsIndexName}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if food listings index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Debug("Food listings index already exists", zap.String("index_name", FoodListingsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error checking if food listings index exists: status %s", res.Status())
	}

	mappingJSON, err := foodListingsMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: FoodListingsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating food listings index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		_ = json.NewDecoder(createRes.Body).Decode(&errorBody)
		log.Error("Failed to create food listings index",
			zap.String("status", createRes.Status()),
			zap.Any("error_details", errorBody),
		)
		return fmt.Errorf("failed to create food listings index: status %s", createRes.Status())
	}

	log.Info("Food listings index created successfully", zap.String("index_name", FoodListingsIndexName))
	return nil
}
