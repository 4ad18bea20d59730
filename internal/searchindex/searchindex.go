// Package searchindex wires a best-effort OpenSearch secondary index over
// vault entry titles/usernames/sites (§4.5's list/search filters). vaultsvc
// keeps it in sync on create/update/delete but never queries it: listing and
// free-text search always use the Postgres ILIKE path in
// internal/store/postgres, so the index may be stale or unreachable without
// affecting any result.
// Grounded on pkg/opensearch's health-checked client construction.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const indexName = "vault_entries"

// Document is the subset of a vault entry indexed for search — never the
// secret.
type Document struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Title     string `json:"title"`
	Username  string `json:"username,omitempty"`
	Site      string `json:"site,omitempty"`
}

// Index is the interface vaultsvc depends on. A nil Index (or any method
// erroring) is always survivable — callers log the error and carry on.
// vaultsvc calls only Upsert and Delete.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, accountID, query string) ([]string, error)
}

// OpenSearchIndex implements Index over an opensearch-go client.
type OpenSearchIndex struct {
	client *opensearch.Client
	logger *slog.Logger
}

// New wraps an already-connected client (built via pkg/opensearch.New).
func New(client *opensearch.Client, logger *slog.Logger) *OpenSearchIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenSearchIndex{client: client, logger: logger}
}

func (i *OpenSearchIndex) Upsert(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("searchindex: marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("searchindex: index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("searchindex: index document: %s", res.String())
	}
	return nil
}

func (i *OpenSearchIndex) Delete(ctx context.Context, id string) error {
	req := opensearchapi.DeleteRequest{Index: indexName, DocumentID: id}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("searchindex: delete document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("searchindex: delete document: %s", res.String())
	}
	return nil
}

func (i *OpenSearchIndex) Search(ctx context.Context, accountID, query string) ([]string, error) {
	reqBody := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{"term": map[string]any{"account_id": accountID}},
				},
				"should": []map[string]any{
					{"match": map[string]any{"title": query}},
					{"match": map[string]any{"username": query}},
					{"match": map[string]any{"site": query}},
				},
				"minimum_should_match": 1,
			},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("searchindex: marshal search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(indexName),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("searchindex: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("searchindex: search: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("searchindex: decode search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
