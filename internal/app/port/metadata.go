package port

import (
	"context"

	"jpeg_swap/internal/domain/entity"
)

// MetadataFetcher loads token metadata JSON from an already resolved URL.
// Implementations are expected to fail often (404s, non-JSON bodies).
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (entity.TokenMetadata, error)
}
