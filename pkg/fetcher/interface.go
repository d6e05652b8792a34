package fetcher

import "context"

//go:generate mockgen -package mockfetcher -source=interface.go -destination=mock/mockfetcher.go *
type Fetcher interface {
	Get(ctx context.Context, rawURL string, accept string) (*Response, error)
}

var _ Fetcher = (*Client)(nil)
