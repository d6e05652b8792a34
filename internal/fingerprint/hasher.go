package fingerprint

import (
	"fmt"
	"image"

	"logocluster/pkg/domain"
	"logocluster/pkg/serrors"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

const (
	// PHash is a DCT perceptual hash over a 64x64 bilinear downscale.
	PHash domain.Algorithm = "phash"
	// PHashLanczos is a DCT perceptual hash over a Lanczos downscale.
	PHashLanczos domain.Algorithm = "phash-lanczos"
	// DHash is a horizontal gradient hash.
	DHash domain.Algorithm = "dhash"
	// AHash is a mean luminance hash.
	AHash domain.Algorithm = "ahash"
)

// DefaultAlgorithm is used when none is configured.
const DefaultAlgorithm = PHash

// Algorithms lists the supported algorithm names.
func Algorithms() []domain.Algorithm {
	return []domain.Algorithm{PHash, PHashLanczos, DHash, AHash}
}

// NewHasher returns the hasher for alg. An empty alg selects DefaultAlgorithm.
func NewHasher(alg domain.Algorithm) (Hasher, error) {
	switch alg {
	case PHash, "":
		return imageHasher{alg: PHash, threshold: 8, fn: goimagehash.PerceptionHash}, nil
	case DHash:
		return imageHasher{alg: DHash, threshold: 10, fn: goimagehash.DifferenceHash}, nil
	case AHash:
		return imageHasher{alg: AHash, threshold: 6, fn: goimagehash.AverageHash}, nil
	case PHashLanczos:
		return lanczosHasher{}, nil
	default:
		return nil, serrors.With(serrors.ErrBadRequest, "unknown fingerprint algorithm %q", alg)
	}
}

type imageHasher struct {
	alg       domain.Algorithm
	threshold int
	fn        func(image.Image) (*goimagehash.ImageHash, error)
}

func (h imageHasher) Algorithm() domain.Algorithm { return h.alg }
func (h imageHasher) Threshold() int              { return h.threshold }

func (h imageHasher) Hash(img image.Image) (uint64, error) {
	ih, err := h.fn(img)
	if err != nil {
		return 0, fmt.Errorf("could not compute %s: %w", h.alg, err)
	}

	return ih.GetHash(), nil
}

type lanczosHasher struct{}

func (lanczosHasher) Algorithm() domain.Algorithm { return PHashLanczos }
func (lanczosHasher) Threshold() int              { return 8 }

// lanczosSide equals the sample size PerceptionHash resizes to.
const lanczosSide = 64

func (lanczosHasher) Hash(img image.Image) (uint64, error) {
	small := imaging.Resize(img, lanczosSide, lanczosSide, imaging.Lanczos)
	ih, err := goimagehash.PerceptionHash(small)
	if err != nil {
		return 0, fmt.Errorf("could not compute %s: %w", PHashLanczos, err)
	}

	return ih.GetHash(), nil
}
