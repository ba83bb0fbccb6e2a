package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/database"
	"lua-assistant/internal/common/logger"
)

func catalogWithServer(t *testing.T, handler http.HandlerFunc) *Catalog {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	return NewCatalog(
		&database.ElasticsearchClient{Client: es},
		config.ElasticsearchConfig{Index: "jewelry"},
		logger.NewNoOpLogger(),
	)
}

func TestSearchJewelryParsesHits(t *testing.T) {
	var gotBody map[string]any
	catalog := catalogWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "jewelry")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"hits": []map[string]any{
					{"_source": map[string]any{"id": 1, "name": "Anel Solitário", "category": "Anéis", "price": 1200}},
					{"_source": map[string]any{"id": 2, "name": "Anel de Ouro 18k", "category": "Anéis", "price": 2500}},
				},
			},
		})
	})

	items, err := catalog.SearchJewelry(context.Background(), "anel", "Anéis")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Anel Solitário", items[0].Name)
	assert.Equal(t, 2500.0, items[1].Price)

	// The free text lands in a multi_match, the category in a term filter.
	encoded, _ := json.Marshal(gotBody)
	assert.Contains(t, string(encoded), "multi_match")
	assert.Contains(t, string(encoded), "category.keyword")
}

func TestSearchJewelryEmptyQueryMatchesAll(t *testing.T) {
	catalog := catalogWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "match_all")

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"hits": []map[string]any{}},
		})
	})

	items, err := catalog.SearchJewelry(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchJewelryIndexError(t *testing.T) {
	catalog := catalogWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "index_not_found_exception"})
	})

	_, err := catalog.SearchJewelry(context.Background(), "anel", "")
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}
