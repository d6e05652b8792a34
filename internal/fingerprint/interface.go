package fingerprint

import (
	"context"
	"image"

	"logocluster/pkg/domain"
)

//go:generate mockgen -package mockfingerprint -source=interface.go -destination=mock/mockfingerprint.go *
type Fingerprinter interface {
	// Fingerprint fetches the image at rawURL and returns its perceptual hash.
	Fingerprint(ctx context.Context, rawURL string) (domain.Fingerprint, error)
	// Algorithm reports the hash algorithm in use.
	Algorithm() domain.Algorithm
}

// Hasher reduces a decoded image to a 64-bit perceptual hash.
type Hasher interface {
	Algorithm() domain.Algorithm
	// Threshold is the default clustering distance calibrated for this algorithm.
	Threshold() int
	Hash(img image.Image) (uint64, error)
}
