// Package locator finds a logo candidate on a domain's root page by applying
// an ordered list of HTML heuristics.
package locator

import (
	"bytes"
	"context"
	"net/url"

	"logocluster/pkg/fetcher"
	"logocluster/pkg/logger"
	"logocluster/pkg/serrors"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const tracerName = "logocluster/internal/locator"

type htmlLocator struct {
	fetcher    fetcher.Fetcher
	heuristics []Heuristic
}

// New returns a Locator that fetches pages with f. Without heuristics the
// DefaultHeuristics are used.
func New(f fetcher.Fetcher, heuristics ...Heuristic) Locator {
	if len(heuristics) == 0 {
		heuristics = DefaultHeuristics()
	}

	return &htmlLocator{fetcher: f, heuristics: heuristics}
}

func (l *htmlLocator) Locate(ctx context.Context, domain string) (_ string, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "locator.Locate",
		trace.WithAttributes(attribute.String("domain", domain)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	pageURL := PageURL(domain)
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid domain %q", domain)
	}

	resp, err := l.fetcher.Get(ctx, pageURL, "")
	if err != nil {
		return "", err
	}

	body, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrMalformed, err, "could not decode page charset")
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrMalformed, err, "could not parse page")
	}

	for _, h := range l.heuristics {
		candidate, ok := h.Match(doc, base)
		if !ok {
			continue
		}
		logger.Debug(ctx, "logo candidate found",
			zap.String("heuristic", h.Name),
			zap.String("url", candidate))
		span.SetAttributes(attribute.String("heuristic", h.Name))

		return candidate, nil
	}

	return "", serrors.With(serrors.ErrNoCandidate, "no heuristic matched on %s", pageURL)
}
