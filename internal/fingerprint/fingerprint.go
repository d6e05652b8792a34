// Package fingerprint downloads candidate logo images and reduces them to
// 64-bit perceptual hashes.
package fingerprint

import (
	"context"

	"logocluster/internal/config"
	"logocluster/pkg/domain"
	"logocluster/pkg/fetcher"
	"logocluster/pkg/logger"
	"logocluster/pkg/serrors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "logocluster/internal/fingerprint"

// Options configures the fingerprinter.
type Options struct {
	// MaxPixels bounds the decoded image area. Default DefaultMaxPixels.
	MaxPixels int
}

// NewOptions maps the fingerprint section of cfg.
func NewOptions(cfg *config.Config) Options {
	return Options{MaxPixels: cfg.Fingerprint.MaxPixels}
}

type imageFingerprinter struct {
	fetcher fetcher.Fetcher
	hasher  Hasher
	opts    Options
}

// New returns a Fingerprinter that downloads images with f and hashes them with h.
func New(f fetcher.Fetcher, h Hasher, opts Options) Fingerprinter {
	return &imageFingerprinter{fetcher: f, hasher: h, opts: opts}
}

func (p *imageFingerprinter) Algorithm() domain.Algorithm { return p.hasher.Algorithm() }

func (p *imageFingerprinter) Fingerprint(ctx context.Context, rawURL string) (_ domain.Fingerprint, err error) {
	if err := Supported(rawURL); err != nil {
		return domain.Fingerprint{}, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "fingerprint.Fingerprint",
		trace.WithAttributes(
			attribute.String("url", rawURL),
			attribute.String("algorithm", string(p.hasher.Algorithm()))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	resp, err := p.fetcher.Get(ctx, rawURL, fetcher.ImageAccept)
	if err != nil {
		return domain.Fingerprint{}, err
	}

	return Sum(ctx, resp.Body, p.hasher, p.opts.MaxPixels)
}

// Sum decodes image bytes and hashes them with h.
func Sum(ctx context.Context, data []byte, h Hasher, maxPixels int) (domain.Fingerprint, error) {
	img, err := Decode(data, maxPixels)
	if err != nil {
		return domain.Fingerprint{}, err
	}

	v, err := h.Hash(img)
	if err != nil {
		return domain.Fingerprint{}, serrors.Wrap(serrors.ErrMalformed, err, "could not hash image")
	}
	fp := domain.Fingerprint{Algorithm: h.Algorithm(), Hash: v}

	if logger.IsDebug(ctx) {
		b := img.Bounds()
		logger.Debug(ctx, "image fingerprinted",
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()),
			zap.Stringer("fingerprint", fp))
	}

	return fp, nil
}
