package service

import (
	"context"

	"github.com/scouthq/paperscout/internal/provider"
)

// Gateway is the bulk-inference provider boundary. provider.Client is the
// production implementation; tests substitute fakes.
type Gateway interface {
	// SubmitBatch submits one request per item and returns the
	// provider-issued correlation key. All-or-nothing: on error the caller
	// has no provider-side state to track.
	SubmitBatch(ctx context.Context, requests []provider.ItemRequest) (string, error)

	// GetStatus returns the provider's raw view of a submitted batch.
	GetStatus(ctx context.Context, correlationKey string) (*provider.BatchStatus, error)

	// FetchResults returns the per-item outcomes of an ended batch. One
	// malformed item never aborts the rest.
	FetchResults(ctx context.Context, correlationKey string) ([]provider.ItemResult, error)
}
