// Package search serves full-text jewelry catalog queries from an
// Elasticsearch index. The dispatcher falls back to the relational store
// when the index is unavailable.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/database"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
)

const defaultSize = 25

type Catalog struct {
	es    *database.ElasticsearchClient
	index string
	log   logger.Logger
}

func NewCatalog(es *database.ElasticsearchClient, cfg config.ElasticsearchConfig, log logger.Logger) *Catalog {
	return &Catalog{
		es:    es,
		index: cfg.Index,
		log:   log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

// SearchJewelry matches pieces by free text and an optional exact category.
func (c *Catalog) SearchJewelry(ctx context.Context, query, category string) ([]models.Jewelry, error) {
	body, err := json.Marshal(buildJewelryQuery(query, category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	size := defaultSize
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, c.es.Client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Source models.Jewelry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	items := make([]models.Jewelry, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		items = append(items, hit.Source)
	}
	c.log.Debug("catalog search completed", map[string]interface{}{
		"query": query,
		"hits":  len(items),
	})
	return items, nil
}

func buildJewelryQuery(query, category string) map[string]interface{} {
	var must []interface{}
	if query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^3", "category"},
				"type":   "best_fields",
			},
		})
	}
	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	var filter []interface{}
	if category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category.keyword": category},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
}
