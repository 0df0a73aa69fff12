package domain

import "github.com/google/uuid"

// CatalogItem is the externally-supplied price and availability snapshot
// for a vaccine or combo. The engine never manages the catalog itself.
type CatalogItem struct {
	ID        uuid.UUID    `json:"id"`
	Kind      LineItemKind `json:"kind"`
	Name      string       `json:"name"`
	Price     int64        `json:"price"`
	SaleOff   int          `json:"sale_off"`
	Available bool         `json:"available"`
}
