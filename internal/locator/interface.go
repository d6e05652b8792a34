package locator

import "context"

//go:generate mockgen -package mocklocator -source=interface.go -destination=mock/mocklocator.go *
type Locator interface {
	// Locate returns the absolute URL of the best logo candidate on the domain's root page.
	Locate(ctx context.Context, domain string) (string, error)
}
