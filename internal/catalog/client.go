// Package catalog reads vaccine and combo pricing from the external
// catalog service. Prices are snapshotted onto order line items at
// creation time, so the engine only needs point reads here.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
)

type Provider interface {
	GetItem(ctx context.Context, kind domain.LineItemKind, id uuid.UUID) (*domain.CatalogItem, error)
}

type Cache interface {
	GetCatalogItem(ctx context.Context, kind domain.LineItemKind, id uuid.UUID) (*domain.CatalogItem, error)
	SetCatalogItem(ctx context.Context, item *domain.CatalogItem) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
}

func NewClient(baseURL string, cache Cache) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
	}
}

func (c *Client) GetItem(ctx context.Context, kind domain.LineItemKind, id uuid.UUID) (*domain.CatalogItem, error) {
	if c.cache != nil {
		if cached, err := c.cache.GetCatalogItem(ctx, kind, id); err == nil {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.itemURL(kind, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var item domain.CatalogItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode catalog item: %w", err)
	}
	item.ID = id
	item.Kind = kind

	if c.cache != nil {
		_ = c.cache.SetCatalogItem(ctx, &item)
	}
	return &item, nil
}

func (c *Client) itemURL(kind domain.LineItemKind, id uuid.UUID) string {
	if kind == domain.LineItemCombo {
		return fmt.Sprintf("%s/v1/combos/%s", c.baseURL, id)
	}
	return fmt.Sprintf("%s/v1/vaccines/%s", c.baseURL, id)
}

var _ Provider = (*Client)(nil)
